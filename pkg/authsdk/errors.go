package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// MsgTokenExpired is the message the service answers with when an access
// token has expired. Session rotates its tokens when it sees it.
const MsgTokenExpired = "Token expired"

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsTokenExpired reports whether err says the access token has expired.
func IsTokenExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusUnauthorized &&
		apiErr.Message == MsgTokenExpired
}

// parseErrorResponse turns an error body into an *APIError. Bodies that are
// not the service's JSON shape fall back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

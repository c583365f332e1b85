package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// MsgInvalidJSON is returned for bodies that are not a JSON object.
const MsgInvalidJSON = "Invalid JSON body"

// statusFor maps a service failure kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuth, service.KindExpired:
		return http.StatusUnauthorized
	case service.KindInvalid:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as {"error": message}. Internal failures are
// logged in full and reported to the client generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindInternal {
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.MsgInternalError)
		return
	}
	httpx.WriteError(w, statusFor(se.Kind), se.Message)
}

// decodeBody decodes the JSON request body into dst, writing a 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		slogx.FromContext(r.Context()).Debug("rejecting request body", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

// userID returns the authenticated user, or writes a 403 when the route was
// wired without AuthnMiddleware.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusForbidden, httpx.MsgInvalidToken)
	}
	return id, ok
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, http.StatusNotFound, "Route not found")
}

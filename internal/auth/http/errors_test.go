package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", service.ValidationError("bad"), http.StatusBadRequest, "bad"},
		{"conflict", service.ConflictError("taken"), http.StatusBadRequest, "taken"},
		{"auth", service.AuthError("nope"), http.StatusUnauthorized, "nope"},
		{"expired", service.ExpiredError("Token expired"), http.StatusUnauthorized, "Token expired"},
		{"invalid", service.InvalidError("Invalid refresh token"), http.StatusForbidden, "Invalid refresh token"},
		{"not found", service.NotFoundError("User not found"), http.StatusNotFound, "User not found"},
		{"internal hides detail", service.InternalError("hash", errors.New("bcrypt exploded")), http.StatusInternalServerError, httpx.MsgInternalError},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError, httpx.MsgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceError(rec, req, tt.err)

			require.Equal(t, tt.status, rec.Code)
			require.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
		})
	}
}

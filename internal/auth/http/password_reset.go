package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// MsgResetRequested is the answer to every accepted forgot-password call,
// whether or not the account exists.
const MsgResetRequested = "If the email exists, a reset link will be sent"

type PasswordResetHandler struct {
	Resets *service.PasswordResetService
}

// HandleForgot godoc
//
//	@Summary		Request password reset
//	@Description	Sends a reset link out of band if the account exists. The response never reveals whether it does.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ForgotPasswordRequest	true	"email"
//	@Success		200		{object}	authsdk.MessageResponse			"message"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Valid email is required"
//	@Failure		429		{object}	authsdk.ErrorResponse			"Too many requests"
//	@Router			/api/auth/forgot-password [post].
func (h *PasswordResetHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Resets.RequestReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: MsgResetRequested})
}

// HandleReset godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password with a reset token. The token is single use and every session of the user ends.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetPasswordRequest	true	"token, newPassword"
//	@Success		200		{object}	authsdk.MessageResponse			"message"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Missing fields, weak password or invalid token"
//	@Failure		429		{object}	authsdk.ErrorResponse			"Too many requests"
//	@Router			/api/auth/reset-password [post].
func (h *PasswordResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Resets.ConsumeReset(r.Context(), req.Token, req.NewPassword)
	// A bad reset token is a form error to the reset page, not an
	// authorization failure.
	var se *service.Error
	if errors.As(err, &se) && se.Kind == service.KindInvalid {
		httpx.WriteError(w, http.StatusBadRequest, se.Message)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Password reset successfully"})
}

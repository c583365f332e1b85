package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
}

// HandleGet godoc
//
//	@Summary		Get profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse	"user"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or expired access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Invalid access token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/api/auth/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	u, err := h.Accounts.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{User: toUser(u)})
}

// HandleUpdate godoc
//
//	@Summary		Update profile
//	@Description	Changes the name and/or password. A new password requires the current one.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.UpdateProfileRequest	true	"name, currentPassword, newPassword"
//	@Success		200		{object}	authsdk.UserMessageResponse		"message, user"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Validation failure or wrong current password"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Router			/api/auth/profile [put].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Accounts.UpdateProfile(r.Context(), id, service.ProfileUpdate{
		Name:            req.Name,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserMessageResponse{
		Message: "Profile updated successfully",
		User:    toUser(u),
	})
}

// HandleChangeEmail godoc
//
//	@Summary		Change email
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ChangeEmailRequest	true	"newEmail, password"
//	@Success		200		{object}	authsdk.UserMessageResponse	"message, user"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Validation failure, wrong password or email in use"
//	@Failure		404		{object}	authsdk.ErrorResponse		"User not found"
//	@Router			/api/auth/change-email [post].
func (h *ProfileHandler) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req authsdk.ChangeEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Accounts.ChangeEmail(r.Context(), id, req.NewEmail, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserMessageResponse{
		Message: "Email updated successfully",
		User:    toUser(u),
	})
}

// HandleDeactivate godoc
//
//	@Summary		Deactivate account
//	@Description	Disables the account after re-checking the password and ends every session. The email stays reserved.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.DeactivateRequest	true	"password"
//	@Success		200		{object}	authsdk.MessageResponse		"message"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Missing or wrong password"
//	@Failure		404		{object}	authsdk.ErrorResponse		"User not found"
//	@Router			/api/auth/deactivate [post].
func (h *ProfileHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req authsdk.DeactivateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Accounts.Deactivate(r.Context(), id, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Account deactivated successfully"})
}

// HandleSessions godoc
//
//	@Summary		Session summary
//	@Description	Counts the user's live refresh tokens and reports the last login time.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionsResponse	"activeSessions, lastLogin"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing or expired access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Invalid access token"
//	@Router			/api/auth/sessions [get].
func (h *ProfileHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	n, err := h.Sessions.CountActiveSessions(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.SessionsResponse{ActiveSessions: n}
	// A user deleted under a live access token just has no login time.
	if u, err := h.Accounts.FindByID(ctx, id); err == nil {
		resp.LastLogin = u.LastLogin
	} else if service.KindOf(err) != service.KindNotFound {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

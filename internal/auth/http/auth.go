package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// AuthHandler serves registration, login and the refresh token lifecycle.
type AuthHandler struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates an account and signs it in. Passwords need 8 characters with an uppercase letter, a lowercase letter, a digit and a special character.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"email, password, name"
//	@Success		201		{object}	authsdk.AuthResponse	"message, user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failure or email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many requests"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	u, err := h.Accounts.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.Sessions.Start(ctx, u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.AuthResponse{
		Message:      "User registered successfully",
		User:         toUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for a token pair. Unknown email and wrong password give the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.AuthResponse	"message, user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing or malformed fields"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials or deactivated account"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many requests"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	u, err := h.Accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.Sessions.Start(ctx, u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Message:      "Login successful",
		User:         toUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleRefresh godoc
//
//	@Summary		Refresh
//	@Description	Rotates a refresh token. The presented token is spent; replaying it fails with 403.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"refreshToken"
//	@Success		200		{object}	authsdk.TokenResponse	"accessToken, refreshToken"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Refresh token required"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Invalid refresh token"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	pair, err := h.Sessions.Rotate(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revokes the given refresh token if it belongs to the caller. Unknown, foreign or already revoked tokens are not an error.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LogoutRequest	false	"refreshToken"
//	@Success		200		{object}	authsdk.MessageResponse	"message"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing or expired access token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Invalid access token"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req authsdk.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		if err := h.Sessions.Revoke(r.Context(), uid, token); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out successfully"})
}

// HandleLogoutAll godoc
//
//	@Summary		Logout everywhere
//	@Description	Revokes every refresh token of the authenticated user.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"message"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or expired access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Invalid access token"
//	@Router			/api/auth/logout-all [post].
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if _, err := h.Sessions.RevokeAllForUser(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out from all devices successfully"})
}

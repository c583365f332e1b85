package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// toUser is the public view of u. The password hash is never serialised.
func toUser(u domain.User) authsdk.User {
	return authsdk.User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLogin:     u.LastLogin,
		DeactivatedAt: u.DeactivatedAt,
	}
}

type UsersHandler struct {
	Accounts *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		List users
//	@Description	Returns every account, active or deactivated, oldest first. Password hashes are never included.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UsersResponse	"users"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or expired access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Invalid access token"
//	@Router			/api/users [get].
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.User, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UsersResponse{Users: out})
}

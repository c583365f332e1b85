package authsdk

import (
	"context"
	"net/http"
)

// Profile returns the authenticated user.
func (s *Session) Profile(ctx context.Context) (*User, error) {
	var out ProfileResponse
	if err := s.do(ctx, http.MethodGet, "/api/auth/profile", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile changes the name and/or password.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var out UserMessageResponse
	if err := s.do(ctx, http.MethodPut, "/api/auth/profile", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangeEmail moves the account to newEmail after re-checking the password.
func (s *Session) ChangeEmail(ctx context.Context, newEmail, password string) (*User, error) {
	var out UserMessageResponse
	req := ChangeEmailRequest{NewEmail: newEmail, Password: password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/change-email", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Deactivate disables the account. Every session, this one included, ends.
func (s *Session) Deactivate(ctx context.Context, password string) error {
	req := DeactivateRequest{Password: password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/deactivate", req, nil, http.StatusOK); err != nil {
		return err
	}
	s.clear()
	return nil
}

// Sessions reports how many refresh tokens the user holds.
func (s *Session) Sessions(ctx context.Context) (*SessionsResponse, error) {
	var out SessionsResponse
	if err := s.do(ctx, http.MethodGet, "/api/auth/sessions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account.
func (s *Session) ListUsers(ctx context.Context) ([]User, error) {
	var out UsersResponse
	if err := s.do(ctx, http.MethodGet, "/api/users", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

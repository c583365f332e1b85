package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrNoRefreshToken is returned when a session must rotate but holds no
// refresh token.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session is an authenticated session. When the service reports that the
// access token has expired, the session rotates its refresh token and
// retries the call once.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Rotate exchanges the refresh token for a new pair now.
func (s *Session) Rotate(ctx context.Context) error {
	return s.rotate(ctx, s.AccessToken())
}

// rotate refreshes the pair unless another goroutine already replaced the
// stale access token.
func (s *Session) rotate(ctx context.Context, stale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if s.accessToken != stale {
		return nil
	}
	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}

	tok, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	s.accessToken = tok.AccessToken
	s.refreshToken = tok.RefreshToken
	return nil
}

// do performs an authenticated call, rotating once on an expired token.
func (s *Session) do(ctx context.Context, method, path string, body, out any, expectedStatus int) error {
	token := s.AccessToken()
	err := s.client.doJSON(ctx, method, path, token, body, out, expectedStatus)
	if !IsTokenExpired(err) {
		return err
	}

	if err := s.rotate(ctx, token); err != nil {
		return err
	}
	return s.client.doJSON(ctx, method, path, s.AccessToken(), body, out, expectedStatus)
}

// Logout revokes this session's refresh token and forgets both tokens.
func (s *Session) Logout(ctx context.Context) error {
	req := LogoutRequest{RefreshToken: s.RefreshToken()}
	if err := s.do(ctx, http.MethodPost, "/api/auth/logout", req, nil, http.StatusOK); err != nil {
		return err
	}
	s.clear()
	return nil
}

// LogoutAll revokes every refresh token of the user, this one included.
func (s *Session) LogoutAll(ctx context.Context) error {
	if err := s.do(ctx, http.MethodPost, "/api/auth/logout-all", nil, nil, http.StatusOK); err != nil {
		return err
	}
	s.clear()
	return nil
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = "", ""
}

package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Taskboard authentication service. It covers
// the public endpoints and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, *AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &out, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return c.NewSession(out.AccessToken, out.RefreshToken), &out, nil
}

// Login authenticates with email and password and returns a session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, *AuthResponse, error) {
	var out AuthResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", req, &out, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.NewSession(out.AccessToken, out.RefreshToken), &out, nil
}

// Refresh exchanges a refresh token for a new pair. The old token is spent
// whether or not the caller keeps the result.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks for a reset link. The answer is the same whether or
// not the account exists.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	req := ForgotPasswordRequest{Email: email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password using a reset token.
func (c *SDKClient) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	req := ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewSession creates a session from tokens obtained elsewhere, for example
// restored from storage.
func (c *SDKClient) NewSession(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

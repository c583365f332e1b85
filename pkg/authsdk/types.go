package authsdk

import "time"

// ============================================================================
// Shared Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// User is the public view of an account. The password hash never leaves the
// server.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
}

// ============================================================================
// Authentication
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message      string `json:"message"`
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is a freshly rotated token pair.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the body of POST /api/auth/logout. The refresh token is
// optional; without it the call only confirms the access token.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ============================================================================
// Account
// ============================================================================

// ProfileResponse is returned by GET /api/auth/profile.
type ProfileResponse struct {
	User User `json:"user"`
}

// UpdateProfileRequest is the body of PUT /api/auth/profile. Empty fields
// are left unchanged; a new password needs the current one.
type UpdateProfileRequest struct {
	Name            string `json:"name,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// UserMessageResponse confirms an account change and returns the result.
type UserMessageResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// ChangeEmailRequest is the body of POST /api/auth/change-email.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail"`
	Password string `json:"password"`
}

// DeactivateRequest is the body of POST /api/auth/deactivate.
type DeactivateRequest struct {
	Password string `json:"password"`
}

// SessionsResponse is returned by GET /api/auth/sessions. LastLogin is null
// until the first login.
type SessionsResponse struct {
	ActiveSessions int        `json:"activeSessions"`
	LastLogin      *time.Time `json:"lastLogin"`
}

// UsersResponse is returned by GET /api/users.
type UsersResponse struct {
	Users []User `json:"users"`
}

// ============================================================================
// Password Reset
// ============================================================================

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by GET /api/health. Uptime is in seconds.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Users     int       `json:"users"`
}

// ProbeResponse is returned by the /livez and /readyz probes.
type ProbeResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Version string       `json:"version,omitempty"`
	Checks  *ProbeChecks `json:"checks,omitempty"`
}

// ProbeChecks reports the state of each dependency checked by /readyz.
type ProbeChecks struct {
	Database string `json:"database"`
}

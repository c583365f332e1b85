package domain

import "time"

// TokenPair is what register, login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken is the stored session record for an issued refresh token.
// Only the fingerprint is kept; a record's presence is what makes the token
// redeemable.
type RefreshToken struct {
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ResetToken is the stored record for an outstanding password reset.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (t ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

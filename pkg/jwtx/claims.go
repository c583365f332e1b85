package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes for the three token kinds the auth service mints.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultResetTokenTTL   = time.Hour
)

// Kind separates access, refresh and reset tokens. All three are signed with
// the same secret, so without it a refresh token would pass as an access
// token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// Claims is the payload of every token we sign. UserID duplicates the
// subject under the name the frontend already reads.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"userId"`
	Kind   Kind   `json:"typ"`
}

// NewClaims builds claims for a token of the given kind issued at now.
func NewClaims(kind Kind, userID, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID: userID,
		Kind:   kind,
	}
}

// NewJTI returns a unique token identifier. Two tokens minted for the same
// user in the same second would otherwise be byte-identical.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateKind rejects a token minted for a different purpose.
func (c *Claims) ValidateKind(want Kind) error {
	if c.Kind != want {
		return ErrTokenKind
	}
	return nil
}

// ExpiresAtTime returns exp as a time.Time, or the zero time when unset.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

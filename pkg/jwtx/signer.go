package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the shortest HMAC secret we accept (256 bits).
const MinSecretSize = 32

var ErrWeakSecret = errors.New("jwtx: signing secret shorter than 32 bytes")

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with a shared HMAC-SHA256 secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 copies secret and returns a signer for it.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{secret: append([]byte(nil), secret...)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns claims into a compact JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrTokenKind    = errors.New("jwtx: wrong token kind")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates tokens signed by an HS256Signer with the same
// secret.
type HS256Verifier struct {
	secret []byte
	opts   VerifyOptions
	parser *jwt.Parser
}

func NewVerifierHS256(secret []byte, opts VerifyOptions) *HS256Verifier {
	return &HS256Verifier{
		secret: append([]byte(nil), secret...),
		opts:   opts,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(opts.Leeway),
		),
	}
}

// Verify checks signature, expiry and issuer. Expiry is only reported for
// tokens whose signature is intact, so ErrExpired never vouches for a forged
// token.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := v.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return Claims{}, ErrInvalidClaim
	}

	return claims, nil
}

// VerifyKind verifies token and additionally requires it to be of kind want.
func VerifyKind(v Verifier, token string, want Kind) (Claims, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateKind(want); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}

package service

import (
	"errors"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
)

// TokenIssuer mints and checks the three kinds of token. It holds no state
// beyond its keys; whether a refresh or reset token is still redeemable is
// the store's business.
type TokenIssuer struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// NewTokenIssuer builds an issuer signing and verifying with secret.
func NewTokenIssuer(secret []byte, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) (*TokenIssuer, error) {
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, err
	}

	return &TokenIssuer{
		Signer:     signer,
		Verifier:   jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{Issuer: issuer, Leeway: 5 * time.Second}),
		Issuer:     issuer,
		AccessTTL:  cmpDuration(accessTTL, jwtx.DefaultAccessTokenTTL),
		RefreshTTL: cmpDuration(refreshTTL, jwtx.DefaultRefreshTokenTTL),
		ResetTTL:   cmpDuration(resetTTL, jwtx.DefaultResetTokenTTL),
		Now:        time.Now,
	}, nil
}

func cmpDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (s *TokenIssuer) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *TokenIssuer) sign(kind jwtx.Kind, userID string, ttl time.Duration) (string, time.Time, error) {
	claims := jwtx.NewClaims(kind, userID, s.Issuer, ttl, s.now())
	tok, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, InternalError("sign "+string(kind)+" token", err)
	}
	return tok, claims.ExpiresAtTime(), nil
}

// IssueTokenPair mints a fresh access and refresh token for userID.
func (s *TokenIssuer) IssueTokenPair(userID string) (domain.TokenPair, error) {
	access, _, err := s.sign(jwtx.KindAccess, userID, s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, _, err := s.sign(jwtx.KindRefresh, userID, s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueResetToken mints a password reset token and returns its expiry.
func (s *TokenIssuer) IssueResetToken(userID string) (string, time.Time, error) {
	return s.sign(jwtx.KindReset, userID, s.ResetTTL)
}

// VerifyAccessToken returns the user the token was issued to. Expiry is
// reported as ExpiredError so callers can prompt a refresh; every other
// failure is InvalidError.
func (s *TokenIssuer) VerifyAccessToken(token string) (string, error) {
	c, err := s.verify(token, jwtx.KindAccess, "Invalid token", "Token expired")
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}

// VerifyRefreshToken checks signature, expiry and kind of a refresh token.
func (s *TokenIssuer) VerifyRefreshToken(token string) (jwtx.Claims, error) {
	return s.verify(token, jwtx.KindRefresh, MsgInvalidRefreshToken, "Refresh token expired")
}

// VerifyResetToken checks signature, expiry and kind of a reset token.
func (s *TokenIssuer) VerifyResetToken(token string) (jwtx.Claims, error) {
	return s.verify(token, jwtx.KindReset, MsgInvalidResetToken, MsgInvalidResetToken)
}

func (s *TokenIssuer) verify(token string, kind jwtx.Kind, invalidMsg, expiredMsg string) (jwtx.Claims, error) {
	c, err := jwtx.VerifyKind(s.Verifier, token, kind)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, jwtx.ErrExpired):
		return jwtx.Claims{}, &Error{Kind: KindExpired, Message: expiredMsg, Err: err}
	default:
		return jwtx.Claims{}, &Error{Kind: KindInvalid, Message: invalidMsg, Err: err}
	}
}

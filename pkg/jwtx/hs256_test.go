package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const issuer = "taskboard-auth"

var (
	secret      = []byte("0123456789abcdef0123456789abcdef")
	otherSecret = []byte("fedcba9876543210fedcba9876543210")
)

func newPair(t *testing.T) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	return signer, jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{Issuer: issuer})
}

func TestNewSignerRejectsShortSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256([]byte("too-short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestSignAndVerify(t *testing.T) {
	signer, verifier := newPair(t)
	require.Equal(t, "HS256", signer.Alg())

	token, err := signer.Sign(jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, time.Now()))
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, jwtx.KindAccess, claims.Kind)

	claims, err = jwtx.VerifyKind(verifier, token, jwtx.KindAccess)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestVerifyFailures(t *testing.T) {
	signer, verifier := newPair(t)
	now := time.Now()

	foreign, err := jwtx.NewSignerHS256(otherSecret)
	require.NoError(t, err)

	mustSign := func(s jwtx.Signer, c jwtx.Claims) string {
		tok, err := s.Sign(c)
		require.NoError(t, err)
		return tok
	}

	valid := mustSign(signer, jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, now))
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	expiredForged := mustSign(foreign, jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, -time.Minute, now))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone,
		jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, now),
	).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp := jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, now)
	noExp.ExpiresAt = nil

	mismatched := jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, now)
	mismatched.Subject = "user-2"

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.jwt", jwtx.ErrMalformed},
		{"empty", "", jwtx.ErrMalformed},
		{"tampered signature", tampered, jwtx.ErrInvalidSig},
		{"foreign secret", mustSign(foreign, jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, time.Minute, now)), jwtx.ErrInvalidSig},
		{"expired", mustSign(signer, jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, -time.Minute, now)), jwtx.ErrExpired},
		{"expired and forged", expiredForged, jwtx.ErrInvalidSig},
		{"alg none", noneToken, jwtx.ErrInvalidSig},
		{"wrong issuer", mustSign(signer, jwtx.NewClaims(jwtx.KindAccess, "user-1", "someone-else", time.Minute, now)), jwtx.ErrIssuer},
		{"missing exp", mustSign(signer, noExp), jwtx.ErrInvalidClaim},
		{"subject mismatch", mustSign(signer, mismatched), jwtx.ErrInvalidClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyKindRejectsOtherKinds(t *testing.T) {
	signer, verifier := newPair(t)

	refresh, err := signer.Sign(jwtx.NewClaims(jwtx.KindRefresh, "user-1", issuer, time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = jwtx.VerifyKind(verifier, refresh, jwtx.KindAccess)
	require.ErrorIs(t, err, jwtx.ErrTokenKind)
}

func TestVerifyLeeway(t *testing.T) {
	signer, _ := newPair(t)
	lenient := jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{Issuer: issuer, Leeway: time.Minute})

	token, err := signer.Sign(jwtx.NewClaims(jwtx.KindAccess, "user-1", issuer, -10*time.Second, time.Now()))
	require.NoError(t, err)

	_, err = lenient.Verify(token)
	require.NoError(t, err)
}

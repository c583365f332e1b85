package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer(testSecret, "taskboard-test", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, issuer.AccessTTL)
	require.Equal(t, 7*24*time.Hour, issuer.RefreshTTL)
	require.Equal(t, time.Hour, issuer.ResetTTL)

	t.Run("pair round trip", func(t *testing.T) {
		pair, err := issuer.IssueTokenPair("user-1")
		require.NoError(t, err)
		require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

		uid, err := issuer.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "user-1", uid)

		claims, err := issuer.VerifyRefreshToken(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAtTime(), time.Minute)
	})

	t.Run("pairs are unique", func(t *testing.T) {
		a, err := issuer.IssueTokenPair("user-1")
		require.NoError(t, err)
		b, err := issuer.IssueTokenPair("user-1")
		require.NoError(t, err)
		require.NotEqual(t, a.RefreshToken, b.RefreshToken)
	})

	t.Run("expired access token", func(t *testing.T) {
		past := *issuer
		past.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		pair, err := past.IssueTokenPair("user-1")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(pair.AccessToken)
		requireKind(t, err, KindExpired, "Token expired")
	})

	t.Run("kinds are not interchangeable", func(t *testing.T) {
		pair, err := issuer.IssueTokenPair("user-1")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(pair.RefreshToken)
		requireKind(t, err, KindInvalid, "")

		_, err = issuer.VerifyRefreshToken(pair.AccessToken)
		requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)

		reset, _, err := issuer.IssueResetToken("user-1")
		require.NoError(t, err)
		_, err = issuer.VerifyRefreshToken(reset)
		requireKind(t, err, KindInvalid, "")

		claims, err := issuer.VerifyResetToken(reset)
		require.NoError(t, err)
		require.Equal(t, jwtx.KindReset, claims.Kind)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, err := NewTokenIssuer([]byte("another-secret-another-secret-!!"), "taskboard-test", 0, 0, 0)
		require.NoError(t, err)
		pair, err := other.IssueTokenPair("user-1")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(pair.AccessToken)
		requireKind(t, err, KindInvalid, "Invalid token")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken("not-a-token")
		requireKind(t, err, KindInvalid, "")
	})

	t.Run("weak secret", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("short"), "x", 0, 0, 0)
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})
}

package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewClaims(jwtx.KindRefresh, "user-1", "taskboard-auth", jwtx.DefaultRefreshTokenTTL, now)

	require.Equal(t, "user-1", c.UserID)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "taskboard-auth", c.Issuer)
	require.Equal(t, jwtx.KindRefresh, c.Kind)
	require.Equal(t, now.Add(7*24*time.Hour), c.ExpiresAtTime())
	require.NotEmpty(t, c.ID)

	again := jwtx.NewClaims(jwtx.KindRefresh, "user-1", "taskboard-auth", jwtx.DefaultRefreshTokenTTL, now)
	require.NotEqual(t, c.ID, again.ID, "jti must differ between tokens")
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "auth-service",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("auth-service"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("chat-service"), jwtx.ErrIssuer)
	})
}

func TestValidateKind(t *testing.T) {
	c := &jwtx.Claims{Kind: jwtx.KindAccess}
	require.NoError(t, c.ValidateKind(jwtx.KindAccess))
	require.ErrorIs(t, c.ValidateKind(jwtx.KindRefresh), jwtx.ErrTokenKind)
}

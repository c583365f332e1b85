package service

import (
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesVerifiablePair(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		id := f.register(t, "pair@example.com")

		u, err := f.accounts.Authenticate(ctx, "pair@example.com", testPassword)
		require.NoError(t, err)
		pair, err := f.sessions.Start(ctx, u.ID)
		require.NoError(t, err)

		uid, err := f.tokens.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, id, uid)

		rec, err := f.store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.NoError(t, err)
		require.Equal(t, id, rec.UserID)

		n, err := f.sessions.CountActiveSessions(ctx, id)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestRotate(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		id := f.register(t, "rotate@example.com")

		first, err := f.sessions.Start(ctx, id)
		require.NoError(t, err)

		second, err := f.sessions.Rotate(ctx, first.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// Single use: replaying the old token fails.
		_, err = f.sessions.Rotate(ctx, first.RefreshToken)
		requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)

		// The replacement still works and the session count is unchanged.
		_, err = f.sessions.Rotate(ctx, second.RefreshToken)
		require.NoError(t, err)

		n, err := f.sessions.CountActiveSessions(ctx, id)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestRotateRejects(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		id := f.register(t, "reject@example.com")

		t.Run("unregistered but well signed", func(t *testing.T) {
			pair, err := f.tokens.IssueTokenPair(id)
			require.NoError(t, err)
			_, err = f.sessions.Rotate(ctx, pair.RefreshToken)
			requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)
		})

		t.Run("garbage", func(t *testing.T) {
			_, err := f.sessions.Rotate(ctx, "garbage")
			requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)
		})

		t.Run("expired record is dropped", func(t *testing.T) {
			past := *f.tokens
			past.Now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
			pair, err := past.IssueTokenPair(id)
			require.NoError(t, err)

			hash := cryptox.FingerprintToken(pair.RefreshToken)
			require.NoError(t, f.store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
				TokenHash: hash,
				UserID:    id,
				ExpiresAt: time.Now().Add(-24 * time.Hour),
				CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
			}))

			_, err = f.sessions.Rotate(ctx, pair.RefreshToken)
			requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)

			_, err = f.store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
			require.Error(t, err)
		})

		t.Run("access token is not a refresh token", func(t *testing.T) {
			pair, err := f.sessions.Start(ctx, id)
			require.NoError(t, err)
			_, err = f.sessions.Rotate(ctx, pair.AccessToken)
			requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)
		})
	})
}

func TestRevoke(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		alice := f.register(t, "alice@example.com")
		bob := f.register(t, "bob@example.com")

		a1, err := f.sessions.Start(ctx, alice)
		require.NoError(t, err)
		a2, err := f.sessions.Start(ctx, alice)
		require.NoError(t, err)
		b1, err := f.sessions.Start(ctx, bob)
		require.NoError(t, err)

		require.NoError(t, f.sessions.Revoke(ctx, alice, a1.RefreshToken))
		require.NoError(t, f.sessions.Revoke(ctx, alice, a1.RefreshToken))
		require.NoError(t, f.sessions.Revoke(ctx, alice, "never-issued"))

		_, err = f.sessions.Rotate(ctx, a1.RefreshToken)
		requireKind(t, err, KindInvalid, "")

		n, err := f.sessions.RevokeAllForUser(ctx, alice)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		_, err = f.sessions.Rotate(ctx, a2.RefreshToken)
		requireKind(t, err, KindInvalid, MsgInvalidRefreshToken)

		// Other users keep their sessions.
		_, err = f.sessions.Rotate(ctx, b1.RefreshToken)
		require.NoError(t, err)
	})
}

func TestRevokeIgnoresForeignToken(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		alice := f.register(t, "alice@example.com")
		bob := f.register(t, "bob@example.com")

		b1, err := f.sessions.Start(ctx, bob)
		require.NoError(t, err)

		require.NoError(t, f.sessions.Revoke(ctx, alice, b1.RefreshToken))

		n, err := f.sessions.CountActiveSessions(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		_, err = f.sessions.Rotate(ctx, b1.RefreshToken)
		require.NoError(t, err)
	})
}

func TestRotateConcurrent(t *testing.T) {
	eachDriver(t, func(t *testing.T, f *fixture) {
		ctx := testCtx()
		id := f.register(t, "concurrent@example.com")
		pair, err := f.sessions.Start(ctx, id)
		require.NoError(t, err)

		const workers = 10
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			ok       int
			rejected int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.sessions.Rotate(ctx, pair.RefreshToken)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
				} else if KindOf(err) == KindInvalid {
					rejected++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, ok)
		require.Equal(t, workers-1, rejected)

		n, err := f.sessions.CountActiveSessions(ctx, id)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

// Package storetest is the behaviour every store driver must share. Driver
// packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("RefreshTokens", func(t *testing.T) { testRefreshTokens(t, newStore(t)) })
	t.Run("ResetTokens", func(t *testing.T) { testResetTokens(t, newStore(t)) })
	t.Run("TxCommit", func(t *testing.T) { testTxCommit(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("ConcurrentDelete", func(t *testing.T) { testConcurrentDelete(t, newStore(t)) })
}

// NewUser builds an active user with a fresh id.
func NewUser(email string, at time.Time) domain.User {
	return domain.User{
		ID:           idx.NewAt(at).String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$04$placeholder",
		IsActive:     true,
		CreatedAt:    at,
	}
}

func mustCreate(t *testing.T, s store.Store, email string, at time.Time) domain.User {
	t.Helper()
	u := NewUser(email, at)
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	users := s.Users()

	alice := mustCreate(t, s, "  Alice@Example.COM ", base)
	bob := mustCreate(t, s, "bob@example.com", base.Add(time.Second))

	t.Run("lookup is case insensitive", func(t *testing.T) {
		got, err := users.GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
		require.Equal(t, "alice@example.com", got.Email)
		require.True(t, got.IsActive)
		require.True(t, base.Equal(got.CreatedAt))
		require.Nil(t, got.UpdatedAt)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = users.GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, users.UpdateName(ctx, "nope", "x", base), store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := NewUser("ALICE@example.com", base)
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("updates", func(t *testing.T) {
		at := base.Add(time.Minute)
		require.NoError(t, users.UpdateName(ctx, alice.ID, "Alice", at))
		require.NoError(t, users.UpdatePasswordHash(ctx, alice.ID, "newhash", at))
		require.NoError(t, users.TouchLastLogin(ctx, alice.ID, at))

		got, err := users.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "Alice", got.Name)
		require.Equal(t, "newhash", got.PasswordHash)
		require.NotNil(t, got.UpdatedAt)
		require.True(t, at.Equal(*got.UpdatedAt))
		require.NotNil(t, got.LastLogin)
	})

	t.Run("update email", func(t *testing.T) {
		err := users.UpdateEmail(ctx, alice.ID, "bob@example.com", base)
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		require.NoError(t, users.UpdateEmail(ctx, alice.ID, "Alice2@Example.com", base))
		got, err := users.GetUserByEmail(ctx, "alice2@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = users.GetUserByEmail(ctx, "alice@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		// Re-setting your own email is not a conflict.
		require.NoError(t, users.UpdateEmail(ctx, alice.ID, "alice2@example.com", base))
	})

	t.Run("deactivate keeps the row", func(t *testing.T) {
		require.NoError(t, users.Deactivate(ctx, bob.ID, base.Add(time.Hour)))

		got, err := users.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		require.False(t, got.IsActive)
		require.NotNil(t, got.DeactivatedAt)

		// Deactivated accounts still own their email.
		require.ErrorIs(t, users.CreateUser(ctx, NewUser("bob@example.com", base)), store.ErrAlreadyExists)
	})

	t.Run("list and count", func(t *testing.T) {
		all, err := users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, alice.ID, all[0].ID)
		require.Equal(t, bob.ID, all[1].ID)

		n, err := users.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}

func refresh(hash, userID string, expires time.Time) domain.RefreshToken {
	return domain.RefreshToken{TokenHash: hash, UserID: userID, ExpiresAt: expires, CreatedAt: base}
}

func testRefreshTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.RefreshTokens()

	u1 := mustCreate(t, s, "one@example.com", base)
	u2 := mustCreate(t, s, "two@example.com", base)

	require.NoError(t, repo.CreateRefreshToken(ctx, refresh("h1", u1.ID, base.Add(time.Hour))))
	require.NoError(t, repo.CreateRefreshToken(ctx, refresh("h2", u1.ID, base.Add(time.Hour))))
	require.NoError(t, repo.CreateRefreshToken(ctx, refresh("h3", u1.ID, base.Add(-time.Minute))))
	require.NoError(t, repo.CreateRefreshToken(ctx, refresh("h4", u2.ID, base.Add(time.Hour))))

	t.Run("duplicate hash", func(t *testing.T) {
		err := repo.CreateRefreshToken(ctx, refresh("h1", u2.ID, base.Add(time.Hour)))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetRefreshTokenByHash(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, u1.ID, got.UserID)
		require.True(t, base.Add(time.Hour).Equal(got.ExpiresAt))

		_, err = repo.GetRefreshTokenByHash(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("count ignores expired", func(t *testing.T) {
		n, err := repo.CountUserRefreshTokens(ctx, u1.ID, base)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("delete one", func(t *testing.T) {
		require.NoError(t, repo.DeleteRefreshToken(ctx, "h2"))
		require.ErrorIs(t, repo.DeleteRefreshToken(ctx, "h2"), store.ErrNotFound)
	})

	t.Run("delete expired", func(t *testing.T) {
		n, err := repo.DeleteExpiredRefreshTokens(ctx, base)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		_, err = repo.GetRefreshTokenByHash(ctx, "h3")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete all for user", func(t *testing.T) {
		n, err := repo.DeleteUserRefreshTokens(ctx, u1.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = repo.CountUserRefreshTokens(ctx, u1.ID, base)
		require.NoError(t, err)
		require.Zero(t, n)

		// Other users are untouched.
		_, err = repo.GetRefreshTokenByHash(ctx, "h4")
		require.NoError(t, err)
	})
}

func testResetTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.ResetTokens()
	u := mustCreate(t, s, "reset@example.com", base)

	live := domain.ResetToken{TokenHash: "r1", UserID: u.ID, ExpiresAt: base.Add(time.Hour), CreatedAt: base}
	dead := domain.ResetToken{TokenHash: "r2", UserID: u.ID, ExpiresAt: base.Add(-time.Second), CreatedAt: base}
	require.NoError(t, repo.CreateResetToken(ctx, live))
	require.NoError(t, repo.CreateResetToken(ctx, dead))
	require.ErrorIs(t, repo.CreateResetToken(ctx, live), store.ErrAlreadyExists)

	got, err := repo.GetResetTokenByHash(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)

	n, err := repo.DeleteExpiredResetTokens(ctx, base)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.DeleteResetToken(ctx, "r1"))
	require.ErrorIs(t, repo.DeleteResetToken(ctx, "r1"), store.ErrNotFound)
	_, err = repo.GetResetTokenByHash(ctx, "r1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTxCommit(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "tx@example.com", base)
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, refresh("old", u.ID, base.Add(time.Hour))))

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, "old"); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, refresh("new", u.ID, base.Add(time.Hour)))
	})
	require.NoError(t, err)

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "new")
	require.NoError(t, err)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "rollback@example.com", base)
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, refresh("keep", u.ID, base.Add(time.Hour))))
	require.NoError(t, s.ResetTokens().CreateResetToken(ctx, domain.ResetToken{
		TokenHash: "reset", UserID: u.ID, ExpiresAt: base.Add(time.Hour), CreatedAt: base,
	}))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().UpdatePasswordHash(ctx, u.ID, "changed", base))
		require.NoError(t, tx.Users().UpdateEmail(ctx, u.ID, "moved@example.com", base))
		require.NoError(t, tx.ResetTokens().DeleteResetToken(ctx, "reset"))
		n, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.NoError(t, tx.Users().CreateUser(ctx, NewUser("new@example.com", base)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.Equal(t, "rollback@example.com", got.Email)

	_, err = s.Users().GetUserByEmail(ctx, "rollback@example.com")
	require.NoError(t, err)
	_, err = s.Users().GetUserByEmail(ctx, "moved@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByEmail(ctx, "new@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.ResetTokens().GetResetTokenByHash(ctx, "reset")
	require.NoError(t, err)
	n, err := s.RefreshTokens().CountUserRefreshTokens(ctx, u.ID, base)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// Exactly one of many concurrent transactional deletes of the same record
// may succeed.
func testConcurrentDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "race@example.com", base)
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, refresh("contested", u.ID, base.Add(time.Hour))))

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				return tx.RefreshTokens().DeleteRefreshToken(ctx, "contested")
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, success)
}

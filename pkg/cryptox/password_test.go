package cryptox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testHasher = NewPasswordHasher(bcrypt.MinCost, time.Second)

func TestNewPasswordHasherDefaults(t *testing.T) {
	h := NewPasswordHasher(0, 0)
	require.Equal(t, DefaultCost, h.Cost)
	require.Equal(t, DefaultHashTimeout, h.Timeout)
}

func TestHashAndVerify(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
	}{
		{"simple", "Valid123!"},
		{"symbols", "P@ssw0rd!#$%^&*()"},
		{"unicode", "Пароль123!密码"},
		{"longer than bcrypt input", strings.Repeat("Ab1!", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := testHasher.Hash(ctx, tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$2a$"), "bcrypt encoding expected")

			require.NoError(t, testHasher.Verify(ctx, tt.password, hash))
			require.ErrorIs(t, testHasher.Verify(ctx, tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestHashUsesConfiguredCost(t *testing.T) {
	hash, err := testHasher.Hash(context.Background(), "Valid123!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)
}

func TestHashUniqueSalts(t *testing.T) {
	ctx := context.Background()
	a, err := testHasher.Hash(ctx, "Valid123!")
	require.NoError(t, err)
	b, err := testHasher.Hash(ctx, "Valid123!")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestLongPasswordsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	prefix := strings.Repeat("a", 80)

	hash, err := testHasher.Hash(ctx, prefix+"1")
	require.NoError(t, err)
	require.ErrorIs(t, testHasher.Verify(ctx, prefix+"2", hash), ErrPasswordMismatch)
}

func TestVerifyCorruptHash(t *testing.T) {
	err := testHasher.Verify(context.Background(), "Valid123!", "not-a-bcrypt-hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHashTimeout(t *testing.T) {
	slow := NewPasswordHasher(20, time.Millisecond)
	_, err := slow.Hash(context.Background(), "Valid123!")
	require.ErrorIs(t, err, ErrHashTimeout)
}

func TestHashCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := NewPasswordHasher(20, time.Minute)
	_, err := slow.Hash(ctx, "Valid123!")
	require.ErrorIs(t, err, context.Canceled)
}

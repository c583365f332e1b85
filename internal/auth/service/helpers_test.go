package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret-test-secret-test-secret!")

const testPassword = "Valid123!"

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []ResetDelivery
	err        error
}

func (n *recordingNotifier) NotifyReset(_ context.Context, d ResetDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) ResetDelivery {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.deliveries)
	return n.deliveries[len(n.deliveries)-1]
}

type fixture struct {
	store    store.Store
	tokens   *TokenIssuer
	hasher   *cryptox.PasswordHasher
	accounts *AccountService
	sessions *SessionService
	resets   *PasswordResetService
	notifier *recordingNotifier
}

func newFixture(t *testing.T, st store.Store) *fixture {
	t.Helper()

	tokens, err := NewTokenIssuer(testSecret, "taskboard-test", 0, 0, 0)
	require.NoError(t, err)

	hasher := cryptox.NewPasswordHasher(bcrypt.MinCost, 5*time.Second)
	sessions := &SessionService{Store: st, Tokens: tokens}
	notifier := &recordingNotifier{}

	return &fixture{
		store:    st,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		accounts: &AccountService{Store: st, Hasher: hasher, Sessions: sessions},
		resets: &PasswordResetService{
			Store:    st,
			Tokens:   tokens,
			Hasher:   hasher,
			Notifier: notifier,
			ResetURL: "http://localhost:3000/reset-password",
		},
	}
}

// eachDriver runs fn once per store driver with a fresh fixture.
func eachDriver(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Helper()

	drivers := map[string]func(t *testing.T) store.Store{
		"memory": func(*testing.T) store.Store { return memory.NewStore() },
		"sqlite": func(t *testing.T) store.Store {
			s, err := sqlite.NewStore(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.ApplyMigrations())
			return s
		},
	}

	for name, newStore := range drivers {
		t.Run(name, func(t *testing.T) {
			fn(t, newFixture(t, newStore(t)))
		})
	}
}

func testCtx() context.Context {
	return slogx.WithContext(context.Background(), slogx.Discard())
}

func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	u, err := f.accounts.Register(testCtx(), email, testPassword, "Test User")
	require.NoError(t, err)
	return u.ID
}

func requireKind(t *testing.T, err error, want Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "err: %v", err)
	if msg != "" {
		var se *Error
		require.ErrorAs(t, err, &se)
		require.Equal(t, msg, se.Message)
	}
}

func discardLogger() *slog.Logger { return slogx.Discard() }

func newFixtureMemory(t *testing.T) *fixture {
	return newFixture(t, memory.NewStore())
}

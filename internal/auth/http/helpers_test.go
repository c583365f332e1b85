package http

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/taskboard/pkg/authsdk"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

const testPassword = "Valid123!"

// generous keeps rate limiting out of the way of functional tests.
func generous(name string) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{Name: name, RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
}

type captureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string // email -> last token
}

func (n *captureNotifier) NotifyReset(_ context.Context, d service.ResetDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tokens == nil {
		n.tokens = make(map[string]string)
	}
	n.tokens[d.Email] = d.Token
	return nil
}

func (n *captureNotifier) token(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	tok, ok := n.tokens[email]
	require.True(t, ok, "no reset delivered to %s", email)
	return tok
}

// syncBuffer collects log output written from server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// pingFailStore reports the store as unreachable.
type pingFailStore struct {
	store.Store
}

func (pingFailStore) Ping(context.Context) error { return errors.New("database is locked") }

type testEnv struct {
	srv      *httptest.Server
	client   *authsdk.SDKClient
	store    store.Store
	tokens   *service.TokenIssuer
	notifier *captureNotifier
}

func newTestEnv(t *testing.T, opts ...func(*Router)) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.NewStore(), opts...)
}

func newTestEnvWithStore(t *testing.T, st store.Store, opts ...func(*Router)) *testEnv {
	t.Helper()

	tokens, err := service.NewTokenIssuer([]byte("http-test-secret-http-test-secret!!"), "taskboard-test", 0, 0, 0)
	require.NoError(t, err)

	hasher := cryptox.NewPasswordHasher(bcrypt.MinCost, 5*time.Second)
	sessions := &service.SessionService{Store: st, Tokens: tokens}
	notifier := &captureNotifier{}

	r := NewRouter(tokens.Verifier, "test", st, slogx.Discard(), []string{"http://localhost:3000"})
	r.Accounts = &service.AccountService{Store: st, Hasher: hasher, Sessions: sessions}
	r.Sessions = sessions
	r.Resets = &service.PasswordResetService{
		Store:    st,
		Tokens:   tokens,
		Hasher:   hasher,
		Notifier: notifier,
		ResetURL: "http://localhost:3000/reset-password",
	}
	r.StrictLimit = generous("strict")
	r.ModerateLimit = generous("moderate")
	r.LenientLimit = generous("lenient")
	for _, opt := range opts {
		opt(r)
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:      srv,
		client:   authsdk.NewClient(srv.URL),
		store:    st,
		tokens:   tokens,
		notifier: notifier,
	}
}

func (e *testEnv) register(t *testing.T, email string) (*authsdk.Session, *authsdk.AuthResponse) {
	t.Helper()
	s, resp, err := e.client.Register(context.Background(), authsdk.RegisterRequest{
		Email:    email,
		Password: testPassword,
		Name:     "Test User",
	})
	require.NoError(t, err)
	return s, resp
}

func requireAPIError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, "message: %s", apiErr.Message)
	if msg != "" {
		require.Equal(t, msg, apiErr.Message)
	}
}

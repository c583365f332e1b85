package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeService accepts "access-N"/"refresh-N" pairs, treats every access
// token below current as expired and rotates refresh tokens single use.
type fakeService struct {
	mu        sync.Mutex
	gen       int
	rotations atomic.Int32
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON := func(code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	current := func(prefix string) string { return prefix + string(rune('0'+f.gen)) }

	switch r.URL.Path {
	case "/api/auth/refresh":
		var req RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != current("refresh-") {
			writeJSON(http.StatusForbidden, ErrorResponse{Error: "Invalid refresh token"})
			return
		}
		f.gen++
		f.rotations.Add(1)
		writeJSON(http.StatusOK, TokenResponse{AccessToken: current("access-"), RefreshToken: current("refresh-")})
	case "/api/auth/profile":
		switch r.Header.Get("Authorization") {
		case "":
			writeJSON(http.StatusUnauthorized, ErrorResponse{Error: "Access token required"})
		case "Bearer " + current("access-"):
			writeJSON(http.StatusOK, ProfileResponse{User: User{ID: "u1", Email: "jane@example.com"}})
		default:
			writeJSON(http.StatusUnauthorized, ErrorResponse{Error: MsgTokenExpired})
		}
	case "/plain":
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	default:
		writeJSON(http.StatusNotFound, ErrorResponse{Error: "Route not found"})
	}
}

func newFakeClient(t *testing.T) (*SDKClient, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/"), svc
}

func TestSessionRotatesOnExpiredToken(t *testing.T) {
	t.Parallel()

	client, svc := newFakeClient(t)
	// access-0 is current; bump the generation so the session's token is stale.
	svc.gen = 1
	s := client.NewSession("access-0", "refresh-1")

	u, err := s.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, "access-2", s.AccessToken())
	require.Equal(t, "refresh-2", s.RefreshToken())
	require.EqualValues(t, 1, svc.rotations.Load())
}

func TestSessionConcurrentCallsShareRotation(t *testing.T) {
	t.Parallel()

	client, svc := newFakeClient(t)
	svc.gen = 1
	s := client.NewSession("access-0", "refresh-1")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Profile(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, svc.rotations.Load())
}

func TestSessionRotationFailure(t *testing.T) {
	t.Parallel()

	client, svc := newFakeClient(t)
	svc.gen = 1

	t.Run("spent refresh token", func(t *testing.T) {
		s := client.NewSession("access-0", "refresh-0")
		_, err := s.Profile(context.Background())
		require.Error(t, err)
		require.True(t, IsStatus(err, http.StatusForbidden))
	})

	t.Run("no refresh token", func(t *testing.T) {
		s := client.NewSession("access-0", "")
		_, err := s.Profile(context.Background())
		require.ErrorIs(t, err, ErrNoRefreshToken)
	})
}

func TestAPIErrorParsing(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(t)

	t.Run("json body", func(t *testing.T) {
		err := client.doJSON(context.Background(), http.MethodGet, "/nowhere", "", nil, nil, http.StatusOK)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, "Route not found", apiErr.Message)
	})

	t.Run("non json body", func(t *testing.T) {
		err := client.doJSON(context.Background(), http.MethodGet, "/plain", "", nil, nil, http.StatusOK)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Contains(t, apiErr.Message, "Bad Gateway")
	})

	t.Run("missing bearer is not expiry", func(t *testing.T) {
		s := client.NewSession("", "refresh-0")
		_, err := s.Profile(context.Background())
		require.True(t, IsStatus(err, http.StatusUnauthorized))
		require.False(t, IsTokenExpired(err))
	})
}

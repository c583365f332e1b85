package httpx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeScripter answers EvalSha with a canned reply and records the call.
type fakeScripter struct {
	redis.Scripter

	reply []any
	err   error

	keys []string
	args []any
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	f.keys = keys
	f.args = args

	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(f.reply)
	return cmd
}

func TestRedisLimiter(t *testing.T) {
	config := httpx.RateLimitConfig{Name: "strict", RequestsPerWindow: 5, Window: 15 * time.Minute, Burst: 5}

	t.Run("allowed", func(t *testing.T) {
		rdb := &fakeScripter{reply: []any{int64(1), int64(4), int64(0)}}
		l := httpx.NewRedisLimiter(rdb, "taskboard", config)

		d, err := l.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 4, d.Remaining)

		require.Equal(t, []string{"taskboard:strict:10.0.0.1"}, rdb.keys)
		require.Len(t, rdb.args, 4)
		require.Equal(t, 5, rdb.args[1])
		require.Equal(t, (3 * time.Minute).Milliseconds(), rdb.args[2])
	})

	t.Run("denied", func(t *testing.T) {
		rdb := &fakeScripter{reply: []any{int64(0), int64(0), int64(90000)}}
		l := httpx.NewRedisLimiter(rdb, "taskboard", config)

		d, err := l.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.Equal(t, 90*time.Second, d.RetryAfter)
	})

	t.Run("redis error", func(t *testing.T) {
		rdb := &fakeScripter{err: errors.New("connection refused")}
		l := httpx.NewRedisLimiter(rdb, "taskboard", config)

		_, err := l.Allow(context.Background(), "10.0.0.1")
		require.Error(t, err)
	})

	t.Run("short reply", func(t *testing.T) {
		rdb := &fakeScripter{reply: []any{int64(1)}}
		l := httpx.NewRedisLimiter(rdb, "taskboard", config)

		_, err := l.Allow(context.Background(), "10.0.0.1")
		require.Error(t, err)
	})

	t.Run("factory", func(t *testing.T) {
		rdb := &fakeScripter{reply: []any{int64(1), int64(0), int64(0)}}
		l := httpx.RedisLimiters(rdb, "tb")(config)

		_, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.Equal(t, []string{"tb:strict:k"}, rdb.keys)
	})
}

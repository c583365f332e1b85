package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucket refills one token every interval_ms up to capacity and takes
// one if available. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('PEXPIRE', key, ttl_ms)

return { allowed, tokens, retry_after_ms }
`)

// RedisLimiter is a token bucket shared by every instance pointed at the same
// Redis. Keys are namespaced by prefix and profile name.
type RedisLimiter struct {
	rdb      redis.Scripter
	prefix   string
	config   RateLimitConfig
	interval time.Duration
	now      func() time.Time
}

// NewRedisLimiter returns a limiter for config backed by rdb.
func NewRedisLimiter(rdb redis.Scripter, prefix string, config RateLimitConfig) *RedisLimiter {
	interval := config.Window / time.Duration(max(config.RequestsPerWindow, 1))
	return &RedisLimiter{
		rdb:      rdb,
		prefix:   prefix,
		config:   config,
		interval: interval,
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	// Bucket state only matters for as long as it takes to refill completely.
	ttl := l.interval * time.Duration(max(l.config.Burst, 1))

	res, err := tokenBucket.Run(ctx, l.rdb,
		[]string{l.key(key)},
		l.now().UnixMilli(),
		l.config.Burst,
		l.interval.Milliseconds(),
		max(ttl.Milliseconds(), 1),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: run script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

func (l *RedisLimiter) key(key string) string {
	return l.prefix + ":" + l.config.Name + ":" + key
}

// LimiterFactory builds the Limiter for a rate limit profile. Routers use it
// to switch between in-process and shared limiting in one place.
type LimiterFactory func(RateLimitConfig) Limiter

// LocalLimiters is the LimiterFactory for in-process limiting.
func LocalLimiters(config RateLimitConfig) Limiter {
	return NewLocalLimiter(config)
}

// RedisLimiters returns a LimiterFactory sharing buckets through rdb.
func RedisLimiters(rdb redis.Scripter, prefix string) LimiterFactory {
	return func(config RateLimitConfig) Limiter {
		return NewRedisLimiter(rdb, prefix, config)
	}
}

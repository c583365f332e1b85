package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// Name identifies the profile in logs and shared limiter keys.
	Name string
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Common rate limit profiles for different endpoint types
// These can be overridden via environment variables (see init() below)
var (
	// StrictLimit guards credential endpoints (register, login, password reset).
	// 5 requests per 15 minutes, all available as a burst.
	// Override with: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
	StrictLimit = RateLimitConfig{
		Name:              "strict",
		RequestsPerWindow: 5,
		Window:            15 * time.Minute,
		Burst:             5,
	}

	// ModerateLimit for token refresh and authenticated account operations.
	// Override with: RATELIMIT_MODERATE_REQUESTS, RATELIMIT_MODERATE_WINDOW_SEC, RATELIMIT_MODERATE_BURST
	ModerateLimit = RateLimitConfig{
		Name:              "moderate",
		RequestsPerWindow: 100,
		Window:            15 * time.Minute,
		Burst:             100,
	}

	// LenientLimit for health checks and other cheap reads.
	// Override with: RATELIMIT_LENIENT_REQUESTS, RATELIMIT_LENIENT_WINDOW_SEC, RATELIMIT_LENIENT_BURST
	LenientLimit = RateLimitConfig{
		Name:              "lenient",
		RequestsPerWindow: 100,
		Window:            time.Minute,
		Burst:             100,
	}
)

func init() {
	// Allow overriding rate limits via environment variables (useful for testing)
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// perSecond converts the window into a refill rate.
func (c RateLimitConfig) perSecond() float64 {
	return float64(c.RequestsPerWindow) / c.Window.Seconds()
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes (e.g., IP address, user ID, email, etc.)
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor extracts the user ID from the request context.
// Returns empty string if no user ID is found.
func UserIDKeyExtractor(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}

// CompositeKeyExtractor combines multiple key extractors with a separator.
// Example: CompositeKeyExtractor(":", IPKeyExtractor, UserIDKeyExtractor)
// would produce keys like "192.168.1.1:user123"
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// JSONFieldKeyExtractor reads a top-level string field from a JSON body and
// restores the body for the handler. Used to throttle login attempts per
// email on top of per IP.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		if err != nil {
			return ""
		}

		var fields map[string]any
		if err := json.Unmarshal(buf, &fields); err != nil {
			return ""
		}
		s, _ := fields[field].(string)
		return strings.ToLower(strings.TrimSpace(s))
	}
}

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	mu       sync.Mutex
	// Cleanup old limiters periodically
	lastCleanup time.Time
}

// NewLocalLimiter returns an in-process limiter for config.
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		rate:        rate.Limit(config.perSecond()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}
}

// Allow implements Limiter. It never fails.
func (rl *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	limiter := rl.getLimiter(key)
	if limiter.Allow() {
		return Decision{Allowed: true, Remaining: int(limiter.Tokens())}, nil
	}

	// Peek at when the next token lands without consuming it.
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	return Decision{Allowed: false, RetryAfter: delay}, nil
}

// getLimiter retrieves or creates a rate limiter for the given key
func (rl *LocalLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)

	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup removes old limiters that haven't been used recently
// This prevents memory leaks from accumulating limiters for ephemeral keys
func (rl *LocalLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	// A limiter with a full bucket has been idle long enough to forget.
	rl.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// MsgTooManyRequests is the body of every 429.
const MsgTooManyRequests = "Too many requests, please try again later."

// RateLimit creates a rate limiting middleware backed by l. The keyExtractor
// determines how requests are grouped. A failing limiter lets the request
// through; throttling is a guard rail, not a dependency.
func RateLimit(l Limiter, config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			d, err := l.Allow(ctx, key)
			if err != nil {
				log.Warn("rate limit: limiter unavailable, allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			if d.Allowed {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(d.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			log.Warn("rate limit exceeded",
				"profile", config.Name,
				"key", key,
				"retry_after", retryAfter,
			)

			WriteError(w, http.StatusTooManyRequests, MsgTooManyRequests)
		})
	}
}

// RateLimitMiddleware creates an in-process rate limiting middleware with the
// given configuration.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return RateLimit(NewLocalLimiter(config), config, keyExtractor)
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByUser creates a rate limiter that limits by authenticated user ID.
// Falls back to IP if no user is authenticated.
func RateLimitByUser(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		IPKeyExtractor,
	))
}

// RateLimitByIPAndJSONField limits by client IP combined with a field of the
// JSON body, so one address cannot hammer a single account and a single
// account is not locked out by unrelated clients sharing a NAT.
func RateLimitByIPAndJSONField(l Limiter, config RateLimitConfig, field string) Middleware {
	return RateLimit(l, config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		JSONFieldKeyExtractor(field),
	))
}

package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
	"github.com/janisto/ols-profile-service/internal/platform/respond"
)

const rateLimitPrefix = "ratelimit:"

// Counter counts hits in fixed windows.
type Counter interface {
	// Incr adds one hit to key and returns the count in the current window
	// and the time until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter implements Counter with INCR and PEXPIRE.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter creates a counter on client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := c.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return n, window, nil
	}
	ttl, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// The key lost its expiry (e.g. a crash between INCR and PEXPIRE).
		if err := c.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return n, ttl, nil
}

// RateLimit allows limit requests per window for each client address and
// path, answering 429 with Retry-After beyond that. A nil counter or a
// non-positive limit disables it. Counter failures let the request through.
func RateLimit(counter Counter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitPrefix + clientAddr(r) + ":" + r.URL.Path
			n, reset, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				applog.LogWarn(r.Context(), "rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			remaining := max(int64(limit)-n, 0)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if n > int64(limit) {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
				respond.WriteProblem(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

var _ Counter = (*RedisCounter)(nil)

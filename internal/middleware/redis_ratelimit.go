package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisRateLimiter is a fixed-window limiter shared by every API instance.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter allows limit requests per window per client IP under
// the given key scope.
func NewRedisRateLimiter(client redis.UniversalClient, scope string, limit int, window time.Duration) *RedisRateLimiter {
	scope = strings.TrimSuffix(strings.TrimSpace(scope), ":")
	if scope == "" {
		scope = "default"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: "tailorone:rate_limit:" + scope,
		limit:  limit,
		window: window,
	}
}

// Consume counts one hit for subject and reports whether it is within the
// limit, plus the seconds until the window resets.
func (l *RedisRateLimiter) Consume(ctx context.Context, subject string) (allowed bool, retryAfter int, err error) {
	windowMs := l.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s", l.prefix, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return true, 0, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return true, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return true, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter = int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return count <= int64(l.limit), retryAfter, nil
}

// Middleware rate limits by client IP. Redis failures let the request through.
func (l *RedisRateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := l.Consume(r.Context(), extractClientIP(r))
			if err != nil {
				slog.Warn("redis rate limiter unavailable", "error", err)
			}
			if !allowed {
				tooManyRequests(w, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

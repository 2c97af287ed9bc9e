package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/ytblog/internal/api/response"
	"github.com/kiranshivaraju/ytblog/internal/cache"
)

const (
	defaultRequestsPerMinute = 10
	rateLimitWindow          = 60 * time.Second
)

// RateLimit provides fixed-window per-client rate limiting via Redis.
// A nil *RateLimit limits nothing.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin}
}

// Limit counts requests for action per client key set by RequestID.
func (rl *RateLimit) Limit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := getClientKey(r)
			if !ok {
				// RequestID didn't run; pass through
				next.ServeHTTP(w, r)
				return
			}

			count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(action, client), rateLimitWindow)
			if err != nil {
				// On Redis error, allow the request (fail open)
				slog.Warn("rate limit check failed", "action", action, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := rl.requestsPerMin - int(count)
			if remaining < 0 {
				remaining = 0
			}
			resetTime := time.Now().Add(rateLimitWindow).Unix()

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

			if count > int64(rl.requestsPerMin) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
				response.Error(w, http.StatusTooManyRequests,
					"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

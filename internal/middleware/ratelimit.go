package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"foodmart/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// maxLocalClients bounds the fallback limiter's memory during an outage
const maxLocalClients = 10000

// localLimiter is the per-process token bucket used while redis is unreachable.
// Buckets are dropped when the window rolls over or the client cap is hit.
type localLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	window      time.Duration
	windowStart time.Time
	now         func() time.Time
}

func newLocalLimiter(config RateLimitConfig) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(config.Window / time.Duration(max(config.RequestsPerWindow, 1))),
		burst:    max(config.RequestsPerWindow, 1),
		window:   config.Window,
		now:      time.Now,
	}
}

func (l *localLimiter) allow(clientID string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.windowStart) >= l.window {
		clear(l.limiters)
		l.windowStart = now
	}

	limiter, ok := l.limiters[clientID]
	if !ok {
		if len(l.limiters) >= maxLocalClients {
			clear(l.limiters)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[clientID] = limiter
	}
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

func clientKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	return "ip:" + r.RemoteAddr
}

func rejectRateLimited(w http.ResponseWriter, limit int, retryAfter time.Duration) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))

	RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// RateLimitMiddleware implements fixed-window rate limiting using Redis.
// When Redis fails, requests are limited per process instead.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	fallback := newLocalLimiter(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)
			key := fmt.Sprintf("%s:%s", config.KeyPrefix, clientID)
			ctx := r.Context()

			count, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				logger.Error("Failed to increment rate limit counter",
					zap.Error(err),
					zap.String("key", key),
				)
				metrics.RecordRateLimitFallback()

				if !fallback.allow(clientID) {
					rejectRateLimited(w, config.RequestsPerWindow, config.Window)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Set expiry on first request
			if count == 1 {
				redisClient.Expire(ctx, key, config.Window)
			}

			if count > int64(config.RequestsPerWindow) {
				ttl, err := redisClient.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = config.Window
				}

				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.Int64("count", count),
					zap.Int("limit", config.RequestsPerWindow),
				)

				rejectRateLimited(w, config.RequestsPerWindow, ttl)
				return
			}

			remaining := config.RequestsPerWindow - int(count)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}

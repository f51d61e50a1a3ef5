package middleware

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig config for Redis-based RPS limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	RPS            int                       // <= 0 disables the limiter
	KeyPrefix      string                    // e.g. "rl:tool:"
	Window         time.Duration             // usually 1s
	RetryAfterHint bool                      // set Retry-After header when limited
	KeyFunc        func(echo.Context) string // bucket per request; empty means unlimited
}

// RateLimitMiddleware applies a fixed-window RPS limit per bucket returned by
// KeyFunc. Requests pass through when redis is missing or unreachable.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:"
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c echo.Context) string { return c.Path() }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.RPS <= 0 || cfg.Redis == nil {
				// no limit configured or redis missing (dev): allow
				return next(c)
			}
			bucket := cfg.KeyFunc(c)
			if bucket == "" {
				return next(c)
			}

			// fixed-window key: rl:tool:{name}:{unix_sec}
			now := time.Now()
			key := cfg.KeyPrefix + bucket + ":" + strconv.FormatInt(now.Unix(), 10)

			// INCR and set expiry 2*window (safety)
			ctx := c.Request().Context()
			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, cfg.Window*2)
			if _, err := pipe.Exec(ctx); err != nil {
				return next(c)
			}

			if cnt.Val() > int64(cfg.RPS) {
				if cfg.RetryAfterHint {
					c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(now, cfg.Window)))
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}

// retryAfterSeconds is the time left in the current window, rounded up to a
// whole second.
func retryAfterSeconds(now time.Time, window time.Duration) int {
	remain := window - time.Duration(now.UnixNano()%int64(window))
	secs := int((remain + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

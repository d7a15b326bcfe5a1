package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shop_payments/pkg/logging"
)

// Limiter is a fixed-window counter per client IP and route, stored in Redis
// so every API replica shares the window.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func New(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window, prefix: "rate_limit"}
}

func (l *Limiter) key(c echo.Context, now time.Time) string {
	bucket := now.UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%s:%d", l.prefix, c.Path(), c.RealIP(), bucket)
}

// Allow returns the running count for the current window.
func (l *Limiter) Allow(c echo.Context) (bool, int64, error) {
	ctx := c.Request().Context()
	key := l.key(c, time.Now())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	n := incr.Val()
	return n <= int64(l.limit), n, nil
}

func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ok, n, err := l.Allow(c)
		if err != nil {
			// redis outage must not take checkout down with it
			logging.FromContext(c.Request().Context()).Warn("rate_limit_error", "error", err)
			return next(c)
		}

		remaining := int64(l.limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !ok {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		}
		return next(c)
	}
}

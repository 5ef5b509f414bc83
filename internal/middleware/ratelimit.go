package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces limiter counters in Redis.
const rateLimitKeyPrefix = "ratelimit:"

// RateLimit returns middleware that allows at most maxRequests per client IP
// within each fixed window. Counters live in Redis so every API instance
// shares the same budget. The name separates budgets of different routes.
//
// If Redis is unavailable the request is let through and a warning logged;
// the limiter protects the OTP and form endpoints, it does not gate them.
func RateLimit(rdb redis.UniversalClient, name string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, name, c.RealIP())

			// EXPIRE NX runs on every hit, so a counter that lost its TTL
			// gets one back on the next request instead of blocking forever.
			var incr *redis.IntCmd
			_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(ctx, key)
				pipe.ExpireNX(ctx, key, window)
				return nil
			})
			if err != nil {
				slog.Warn("rate limiter unavailable",
					slog.String("limiter", name),
					slog.Any("error", err),
				)
				return next(c)
			}
			count := incr.Val()

			if count > int64(maxRequests) {
				ttl, err := rdb.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = window
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second)/time.Second)))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message": "Too many requests. Please try again later.",
				})
			}

			return next(c)
		}
	}
}

// BodyLimit rejects request bodies larger than maxBytes before a handler
// reads them into memory.
func BodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().ContentLength > maxBytes {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
					fmt.Sprintf("request body too large; maximum is %d MB", maxBytes/(1024*1024)))
			}
			c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBytes)
			return next(c)
		}
	}
}

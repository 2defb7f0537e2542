package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when Redis cannot answer a limit check.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNilRedis = errors.New("redis client is nil")

// rateLimitBypassed reports whether APP_ENV disables throttling (test, development, stress).
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit counts a hit for resource/id and reports whether it is within limit per window.
func CheckRateLimit(ctx context.Context, rdb redis.Cmdable, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	return countHit(ctx, rdb, fmt.Sprintf("rl:%s:%s", resource, id), limit, window)
}

// CheckRateLimitAlways is CheckRateLimit without the environment bypass. OTP sending uses it
// so abuse protection stays on in every environment.
func CheckRateLimitAlways(ctx context.Context, rdb redis.Cmdable, resource, id string, limit int, window time.Duration) (bool, error) {
	return countHit(ctx, rdb, fmt.Sprintf("rl:%s:%s", resource, id), limit, window)
}

func countHit(ctx context.Context, rdb redis.Cmdable, key string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errNilRedis
	}
	if client, ok := rdb.(*redis.Client); ok && client == nil {
		return false, errNilRedis
	}

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces limit requests per window keyed by user ID or client IP. It fails open.
func RateLimit(rdb redis.Cmdable, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb redis.Cmdable, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"statusCode": fiber.StatusServiceUnavailable,
					"message":    "Rate limit unavailable",
					"success":    false,
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"statusCode": fiber.StatusTooManyRequests,
				"message":    "Too many requests, please try again later",
				"success":    false,
			})
		}
		return c.Next()
	}
}

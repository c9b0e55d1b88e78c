package middleware

import (
	"fmt"
	"time"

	"github.com/campaign-manager/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func tooManyRequests(c *fiber.Ctx) error {
	reqID, _ := c.Locals(CtxRequestID).(string)
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
		Error:     "Too many requests, please try again later",
		RequestID: reqID,
	})
}

// RateLimitMiddleware allows limit requests per client IP and window. The
// counters live in redis so every API instance shares them; without redis
// each instance counts in memory.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration, log *zap.Logger) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:          limit,
			Expiration:   window,
			LimitReached: tooManyRequests,
		})
	}

	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("rl:%s", c.IP())
		ctx := c.UserContext()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Debug("rate limit counter unavailable", zap.Error(err))
			return c.Next() // fail open
		}

		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			return tooManyRequests(c)
		}

		return c.Next()
	}
}

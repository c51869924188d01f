package middleware

import (
	"time"

	"github.com/fadilmartias/mentor-progress/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max == 0 {
		max = 50
	}
	if expiration == 0 {
		expiration = 1 * time.Minute
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        expiration,
		LimitReached:      limitReached,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// SessionRateLimiter limits per authenticated user rather than per IP, so
// candidates behind one NAT do not share a budget. It must run after Auth.
func SessionRateLimiter(max int, expiration time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if sess, ok := SessionFrom(c); ok {
				return "user:" + sess.UserID.String()
			}
			return c.IP()
		},
		LimitReached:      limitReached,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

func limitReached(c *fiber.Ctx) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusTooManyRequests,
		Message: "Too many requests, please try again later",
	})
}

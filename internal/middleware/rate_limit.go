package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a coarse per-requester limiter. This is a burst guard in
// front of the gateway; the per-entity cooldown is enforced separately by the
// abuse guard.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			requester := UserIDFromLocals(c)
			if requester == "" {
				requester = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, requester)
		},
	})
}

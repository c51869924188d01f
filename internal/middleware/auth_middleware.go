package middleware

import (
	"strings"

	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/fadilmartias/mentor-progress/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const sessionKey = "session"

// Auth opens a session from the bearer token and closes it once the rest of
// the chain has returned.
func Auth(authority *session.Authority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "Missing bearer token",
			})
		}

		sess, err := authority.Open(token)
		if err != nil {
			log.Debugf("rejected token from %s: %v", c.IP(), err)
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "Invalid or expired token",
			}, err)
		}
		defer sess.Close()

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// RequireRoles rejects sessions without one of roles. It must run after Auth.
func RequireRoles(roles ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFrom(c)
		if !ok {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "Not authenticated",
			})
		}
		if !sess.Is(roles...) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusForbidden,
				Message: "You do not have access to this resource",
			})
		}
		return c.Next()
	}
}

// SessionFrom returns the session Auth stored on the request.
func SessionFrom(c *fiber.Ctx) (*session.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*session.Session)
	return sess, ok && sess != nil
}

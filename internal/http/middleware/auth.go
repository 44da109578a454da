package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader carries the authenticated user id, injected by the
	// upstream identity gateway. The service trusts it unconditionally.
	UserIDHeader = "X-User-ID"
	// UserIDLocalKey is the key used to store the user id in Fiber's context locals.
	UserIDLocalKey = "user_id"
)

// Auth requires an authenticated user id on every request it guards.
//
// Behavior:
// - Reads X-User-ID from the incoming request header.
// - Rejects the request with 401 when the header is absent.
// - Stores the value in Fiber context locals under UserIDLocalKey.
func Auth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(UserIDHeader)
		if id == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}

		c.Locals(UserIDLocalKey, id)

		return c.Next()
	}
}

// UserIDFromCtx extracts the user id previously stored by Auth.
func UserIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(UserIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

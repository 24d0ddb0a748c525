package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ActorHeader names the operator performing a request. It is recorded on
	// uploads, claim versions and exports; it is not an authentication mechanism.
	ActorHeader = "X-User-ID"
	// ActorLocalKey is the key used to store the actor in Fiber's context locals.
	ActorLocalKey = "actor"
)

// Actor copies the ActorHeader value into context locals.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ActorLocalKey, strings.TrimSpace(c.Get(ActorHeader)))
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Actor, or "".
func ActorFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(ActorLocalKey).(string)
	return s
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
)

// RequireUser gates routes behind a logged-in session.
func RequireUser(reg *session.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := visitor(c, reg)
		if _, ok := sess.Tokens(); !ok {
			return c.Redirect("/login")
		}
		if u := sess.User(); u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	}
}

// RequireAdmin additionally checks the backend-issued role.
func RequireAdmin(reg *session.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := visitor(c, reg)
		if _, ok := sess.Tokens(); !ok {
			return c.Redirect("/login")
		}
		u := sess.User()
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

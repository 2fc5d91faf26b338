package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
	"pixelkeys/internal/validate"
)

// AuthHandler delegates credentials wholesale to the backend; this server
// only keeps the issued token pair in the visitor's session.
type AuthHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	email, ok := validate.Email(c.FormValue("email"))
	if !ok || !validate.Password(c.FormValue("password")) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid email or password"})
	}

	tokens, user, err := h.API.Login(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid email or password"})
	}
	sess.SetTokens(tokens)
	sess.SetUser(user)

	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

// Logout clears local auth state. The sid cookie stays so the durable cart
// survives; only the login is dropped.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	if err := h.API.Logout(c.UserContext(), sess); err != nil && !errors.Is(err, backend.ErrUnauthorized) {
		applog.Error(c, "auth.logout.backend", err, nil)
	}
	sess.Clear()
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

// Profile shows the backend profile for the logged-in visitor.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	u, err := h.API.Profile(c.UserContext(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "profile.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load profile"})
	}
	sess.SetUser(u)
	return render(c, "profile", fiber.Map{"Profile": u})
}

// UploadAvatar forwards the image to the backend; its validation messages
// come back joined and are shown inline on the profile page.
func (h *AuthHandler) UploadAvatar(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(400).Render("profile", fiber.Map{"Err": "Choose an image to upload"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(400).Render("profile", fiber.Map{"Err": "Could not read the image"})
	}
	defer f.Close()

	if err := h.API.UploadAvatar(c.UserContext(), sess, fh.Filename, f); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "profile.avatar.fail", err, map[string]any{"file": fh.Filename})
		return c.Status(400).Render("profile", fiber.Map{"Err": err.Error()})
	}
	applog.Audit(c, "profile.avatar", map[string]any{"file": fh.Filename})
	return c.Redirect("/profile")
}

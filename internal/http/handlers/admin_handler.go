package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
	"pixelkeys/internal/validate"
)

// AdminHandler is a thin back-office over the backend CRUD endpoints.
type AdminHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return render(c, "admin", fiber.Map{})
}

func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.API.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.categories.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	name := c.FormValue("name")
	if name == "" || len(name) > 60 {
		return c.Status(400).SendString("category name required")
	}
	if err := h.API.CreateCategory(c.UserContext(), sess, name); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "admin.categories.create", err, map[string]any{"name": name})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "admin.category.create", map[string]any{"name": name})
	return c.Redirect("/admin/categories")
}

func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid category id")
	}
	if err := h.API.DeleteCategory(c.UserContext(), sess, id); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "admin.categories.delete", err, map[string]any{"id": id})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"id": id})
	return c.Redirect("/admin/categories")
}

func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	orders, err := h.API.ListAllOrders(c.UserContext(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "admin.orders.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": orders})
}

func (h *AdminHandler) DeleteGame(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid game id")
	}
	if err := h.API.DeleteGame(c.UserContext(), sess, id); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "admin.games.delete", err, map[string]any{"id": id})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "admin.game.delete", map[string]any{"id": id})
	return c.Redirect("/admin")
}

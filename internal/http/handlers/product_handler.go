package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/validate"
)

type ProductHandler struct {
	API *backend.Client
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "game"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This game is no longer available"})
	}
	g, err := h.API.GetGame(c.UserContext(), id)
	if err != nil || g.ID == "" {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This game is no longer available"})
	}

	reviews, err := h.API.ListReviews(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "product.reviews", err, map[string]any{"game": id})
		reviews = nil // reviews failing must not take the page down
	}

	stock := g.StockCount()
	return render(c, "product", fiber.Map{
		"G":       g,
		"Stock":   stock,
		"Badge":   stockBadge(stock),
		"Reviews": reviews,
	})
}

// Availability is the JSON endpoint the product page polls before enabling
// the add-to-cart button.
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("productId"))
	if _, ok := validate.ID(id); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	g, err := h.API.GetGame(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "availability unavailable"})
	}
	stock := g.StockCount()
	return c.JSON(fiber.Map{"status": stockBadge(stock), "qty": stock})
}

func stockBadge(qty int) string {
	switch {
	case qty >= 5:
		return "IN_STOCK"
	case qty > 0:
		return "LOW_STOCK"
	default:
		return "OUT_OF_STOCK"
	}
}

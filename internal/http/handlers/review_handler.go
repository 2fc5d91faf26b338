package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
	"pixelkeys/internal/validate"
)

type ReviewHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	gameID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This game is no longer available"})
	}
	rating, ok := validate.Rating(c.FormValue("rating"))
	if !ok || rating == 0 {
		applog.Security(c, "validation.fail", map[string]any{"field": "rating"})
		return c.Status(400).SendString("rating must be 1-5")
	}
	text, ok := validate.ReviewText(c.FormValue("text"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "text"})
		return c.Status(400).SendString("review text required")
	}

	if err := h.API.CreateReview(c.UserContext(), sess, gameID, rating, text); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "review.create.fail", err, map[string]any{"game": gameID})
		return c.Status(400).SendString("Could not submit the review")
	}
	applog.Audit(c, "review.create", map[string]any{"game": gameID, "rating": rating})
	return c.Redirect("/game/" + gameID)
}

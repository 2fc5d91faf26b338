package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/cart"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
	"pixelkeys/internal/validate"
)

type CartHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

func (h *CartHandler) view(c *fiber.Ctx, sess *session.Session, msg string) error {
	return render(c, "cart", fiber.Map{
		"Lines": sess.Cart.Lines(),
		"Total": sess.Cart.Total(),
		"Msg":   msg,
	})
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return h.view(c, visitor(c, h.Sessions), "")
}

// Add creates a line for the game, snapshotting price and the unused-key
// count observed right now. Out-of-stock adds never reach the store.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}

	g, err := h.API.GetGame(c.UserContext(), id)
	if err != nil || g.ID == "" {
		applog.Error(c, "cart.add.lookup", err, map[string]any{"game": id})
		return h.view(c, sess, "Could not verify availability. Please try again.")
	}
	stock := g.StockCount()
	if stock <= 0 {
		return h.view(c, sess, "This game is out of stock.")
	}

	images := make([]string, 0, len(g.Images))
	for _, img := range g.Images {
		images = append(images, img.URL)
	}
	sess.Cart.AddLine(cart.Candidate{
		Product: cart.Snapshot{
			ProductID: g.ID,
			Name:      g.Name,
			UnitPrice: g.Price,
			Images:    images,
		},
		Quantity:        1,
		StockLimitAtAdd: strconv.Itoa(stock),
	})
	applog.Audit(c, "cart.add", map[string]any{"game": id, "stock": stock})
	return c.Redirect("/cart")
}

// Increment routes through the guard: a blocked request re-renders the cart
// with the guard's message and never touches the store.
func (h *CartHandler) Increment(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Redirect("/cart")
	}
	line, found := sess.Cart.Find(id)
	if !found {
		return c.Redirect("/cart")
	}
	if d := cart.CanIncrement(line.Quantity, line.StockLimitAtAdd); d.Verdict != cart.Allow {
		applog.Info(c, "cart.increment.blocked", map[string]any{"line": id, "qty": line.Quantity, "limit": line.StockLimitAtAdd})
		return h.view(c, sess, d.Message)
	}
	sess.Cart.ChangeQuantity(id, cart.Increment)
	return c.Redirect("/cart")
}

func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	if id, ok := validate.ID(c.Params("id")); ok {
		sess.Cart.ChangeQuantity(id, cart.Decrement)
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	if id, ok := validate.ID(c.Params("id")); ok {
		sess.Cart.Remove(id)
		applog.Audit(c, "cart.remove", map[string]any{"line": id})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Reset(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	sess.Cart.Reset()
	applog.Audit(c, "cart.reset", nil)
	return c.Redirect("/cart")
}

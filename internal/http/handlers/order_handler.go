package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
)

type OrderHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	lines := sess.Cart.Lines()
	if len(lines) == 0 {
		return c.Redirect("/cart")
	}
	return render(c, "checkout", fiber.Map{
		"Lines": lines,
		"Total": sess.Cart.Total(),
	})
}

// Place submits the cart to the backend and redirects to the returned
// payment URL. The cart is deliberately NOT cleared here: payment completes
// on an external page and only explicit reset or removal empties the cart.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	lines := sess.Cart.Lines()
	if len(lines) == 0 {
		return c.Redirect("/cart")
	}

	items := make([]backend.OrderItemReq, 0, len(lines))
	for _, l := range lines {
		items = append(items, backend.OrderItemReq{ProductID: l.Product.ProductID, Quantity: l.Quantity})
	}

	payURL, err := h.API.CreateOrder(c.UserContext(), sess, items)
	if err != nil {
		var conflict *backend.ConflictError
		switch {
		case errors.As(err, &conflict):
			// An unpaid order already exists; offer the extracted payment
			// link as a choice instead of a dead-end error.
			applog.Info(c, "order.place.conflict", map[string]any{"pay_url": conflict.PaymentURL})
			return render(c, "checkout", fiber.Map{
				"Lines":       lines,
				"Total":       sess.Cart.Total(),
				"Conflict":    conflict.Message,
				"ConflictURL": conflict.PaymentURL,
			})
		case errors.Is(err, backend.ErrUnauthorized):
			return c.Redirect("/login")
		default:
			applog.Error(c, "order.place.fail", err, nil)
			return render(c, "checkout", fiber.Map{
				"Lines": lines,
				"Total": sess.Cart.Total(),
				"Err":   "Could not place the order. Please try again.",
			})
		}
	}

	applog.Audit(c, "order.place", map[string]any{"items": len(items)})
	return c.Redirect(payURL)
}

// History lists the visitor's orders with activation keys for completed ones.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	orders, err := h.API.ListOrders(c.UserContext(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return c.Redirect("/login")
		}
		applog.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "orders", fiber.Map{"Orders": orders})
}

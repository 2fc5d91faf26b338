package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/cart"
	"pixelkeys/internal/config"
	"pixelkeys/internal/http/handlers"
	applog "pixelkeys/internal/log"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := cart.OpenStateDB(cfg.StateDSN)
	if err != nil {
		log.Fatal(err)
	}

	api := backend.New(cfg.APIBaseURL)
	log.Printf("[backend] %s", api)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard (avatar uploads included)
	app.Server().MaxRequestBodySize = 5 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, api)

	// Attach the session user to context for templates/headers
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u := deps.Registry.Get(sid).User(); u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// Explorer (listing/search/filters)
	app.Get("/", deps.ExploreHandler.Browse)
	app.Get("/games", deps.ExploreHandler.Browse)
	app.Post("/games/filter", deps.ExploreHandler.Filter)

	// Product pages
	app.Get("/game/:id", deps.ProductHandler.Detail)
	app.Post("/game/:id/reviews", handlers.RequireUser(deps.Registry), deps.ReviewHandler.Create)

	// API
	api1 := app.Group("/api/v1")
	api1.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.ProductHandler.Availability)

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/:id/increment", deps.CartHandler.Increment)
	app.Post("/cart/:id/decrement", deps.CartHandler.Decrement)
	app.Post("/cart/:id/delete", deps.CartHandler.Remove)
	app.Post("/cart/reset", deps.CartHandler.Reset)

	// Checkout & orders
	app.Get("/checkout", deps.OrderHandler.Checkout)
	app.Post("/orders", handlers.RequireUser(deps.Registry), deps.OrderHandler.Place)
	app.Get("/orders", handlers.RequireUser(deps.Registry), deps.OrderHandler.History)

	// Auth & profile (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/profile", handlers.RequireUser(deps.Registry), deps.AuthHandler.Profile)
	app.Post("/profile/avatar", handlers.RequireUser(deps.Registry), deps.AuthHandler.UploadAvatar)

	// Admin back-office
	admin := app.Group("/admin", handlers.RequireAdmin(deps.Registry))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/categories", deps.AdminHandler.Categories)
	admin.Post("/categories", deps.AdminHandler.CreateCategory)
	admin.Post("/categories/:id/delete", deps.AdminHandler.DeleteCategory)
	admin.Get("/orders", deps.AdminHandler.Orders)
	admin.Post("/games/:id/delete", deps.AdminHandler.DeleteGame)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

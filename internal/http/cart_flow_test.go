package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/cart"
	"pixelkeys/internal/http/handlers"
)

func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/games/g1":
			json.NewEncoder(w).Encode(map[string]any{
				"_id": "g1", "name": "Neon Drift", "price": "10.00",
				"keys": []map[string]any{
					{"key": "K1", "used": false},
					{"key": "K2", "used": false},
					{"key": "K3", "used": false},
				},
			})
		case r.URL.Path == "/games":
			json.NewEncoder(w).Encode(map[string]any{"games": []any{}, "length": 0})
		case r.URL.Path == "/categories":
			json.NewEncoder(w).Encode([]any{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newApp(t *testing.T) (*fiber.App, *handlers.Deps) {
	t.Helper()
	db, err := cart.OpenStateDB(":memory:")
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	srv := stubBackend(t)
	t.Cleanup(srv.Close)

	deps := handlers.NewDeps(db, backend.New(srv.URL))

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/:id/increment", deps.CartHandler.Increment)
	app.Post("/cart/:id/decrement", deps.CartHandler.Decrement)
	app.Post("/cart/:id/delete", deps.CartHandler.Remove)
	app.Post("/cart/reset", deps.CartHandler.Reset)
	return app, deps
}

func form(method, target, sid string, vals url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return req
}

func sidFrom(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c.Value
		}
	}
	return ""
}

// Add a game with stock 3, grow to the limit, get the limit message, remove.
func TestCartFlowOverHTTP(t *testing.T) {
	app, deps := newApp(t)

	resp, err := app.Test(form("POST", "/cart", "", url.Values{"productId": {"g1"}}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("add: want redirect, got %d", resp.StatusCode)
	}
	sid := sidFrom(resp)
	if sid == "" {
		t.Fatal("no sid cookie issued")
	}

	sess := deps.Registry.Get(sid)
	lines := sess.Cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("bad cart after add: %+v", lines)
	}
	lineID := lines[0].ID

	// Re-adding the same product stays a single line.
	if _, err := app.Test(form("POST", "/cart", sid, url.Values{"productId": {"g1"}})); err != nil {
		t.Fatal(err)
	}
	if sess.Cart.Len() != 1 {
		t.Fatal("duplicate add created a second line")
	}

	for i := 0; i < 2; i++ {
		resp, err = app.Test(form("POST", "/cart/"+lineID+"/increment", sid, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusFound {
			t.Fatalf("increment %d: want redirect, got %d", i, resp.StatusCode)
		}
	}
	if got := sess.Cart.Lines()[0].Quantity; got != 3 {
		t.Fatalf("want qty 3, got %d", got)
	}

	// Fourth unit exceeds the observed stock: blocked with a message, qty holds.
	resp, err = app.Test(form("POST", "/cart/"+lineID+"/increment", sid, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "stock limit reached") {
		t.Fatalf("expected limit message, got: %.200s", body)
	}
	if got := sess.Cart.Lines()[0].Quantity; got != 3 {
		t.Fatalf("guard leaked an increment: qty %d", got)
	}

	resp, err = app.Test(form("POST", "/cart/"+lineID+"/delete", sid, nil))
	if err != nil {
		t.Fatal(err)
	}
	if sess.Cart.Len() != 0 {
		t.Fatal("remove left the cart non-empty")
	}
}

func TestCartSurvivesNewSessionObject(t *testing.T) {
	app, deps := newApp(t)

	resp, err := app.Test(form("POST", "/cart", "", url.Values{"productId": {"g1"}}))
	if err != nil {
		t.Fatal(err)
	}
	sid := sidFrom(resp)

	// Simulate a restart of the in-memory layer: expire the session, then
	// touch it again; the durable record rebuilds the same cart.
	deps.Registry.Expire(sid)
	sess := deps.Registry.Get(sid)
	if sess.Cart.Len() != 1 {
		t.Fatal("cart did not rehydrate from the persisted record")
	}
}

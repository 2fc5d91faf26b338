// Package backend is the REST client for the external storefront API, the
// single owner of catalog, inventory, orders, reviews, and authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"pixelkeys/internal/domain"
)

// Tokens is the access/refresh pair the backend issues at login.
type Tokens struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

// TokenStore is where a visitor's tokens live (the session registry). The
// client reads it per request, updates it after a successful refresh, and
// clears it when refresh fails.
type TokenStore interface {
	Tokens() (Tokens, bool)
	SetTokens(Tokens)
	Clear()
}

type Client struct {
	base string
	hc   *http.Client
}

func New(baseURL string) *Client {
	return &Client{base: baseURL, hc: &http.Client{Timeout: 15 * time.Second}}
}

// do issues one request. With a token store attached, a 401 triggers exactly
// one transparent refresh-and-retry; a failed refresh clears the store.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, contentType string, ts TokenStore, out any) error {
	resp, err := c.send(ctx, method, path, q, body, contentType, ts)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && ts != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err := c.refresh(ctx, ts); err != nil {
			ts.Clear()
			return ErrUnauthorized
		}
		resp, err = c.send(ctx, method, path, q, body, contentType, ts)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body []byte, contentType string, ts TokenStore) (*http.Response, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts != nil {
		if tk, ok := ts.Tokens(); ok && tk.Access != "" {
			req.Header.Set("Authorization", "Bearer "+tk.Access)
		}
	}
	return c.hc.Do(req)
}

func (c *Client) refresh(ctx context.Context, ts TokenStore) error {
	tk, ok := ts.Tokens()
	if !ok || tk.Refresh == "" {
		return ErrUnauthorized
	}
	body, _ := json.Marshal(map[string]string{"refreshToken": tk.Refresh})
	var fresh Tokens
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, body, "application/json", nil, &fresh); err != nil {
		return err
	}
	ts.SetTokens(fresh)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, ts TokenStore, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, "", ts, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, ts TokenStore) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, body, "application/json", ts, out)
}

// ---------- Catalog ----------

// GamesPage is the /games listing response: one server page of games plus
// the total match count.
type GamesPage struct {
	Games  []domain.Game `json:"games"`
	Length int           `json:"length"`
}

func (c *Client) ListGames(ctx context.Context, filters url.Values) (GamesPage, error) {
	var page GamesPage
	err := c.getJSON(ctx, "/games", filters, nil, &page)
	return page, err
}

func (c *Client) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var g domain.Game
	err := c.getJSON(ctx, "/games/"+url.PathEscape(id), nil, nil, &g)
	return g, err
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	err := c.getJSON(ctx, "/categories", nil, nil, &cats)
	return cats, err
}

// ---------- Orders ----------

type OrderItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrder submits the cart and returns the payment redirect URL. A
// duplicate unpaid order surfaces as *ConflictError.
func (c *Client) CreateOrder(ctx context.Context, ts TokenStore, items []OrderItemReq) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.postJSON(ctx, "/orders", map[string]any{"items": items}, &out, ts); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) ListOrders(ctx context.Context, ts TokenStore) ([]domain.Order, error) {
	var orders []domain.Order
	err := c.getJSON(ctx, "/orders", nil, ts, &orders)
	return orders, err
}

// ---------- Reviews ----------

func (c *Client) ListReviews(ctx context.Context, gameID string) ([]domain.Review, error) {
	var rs []domain.Review
	err := c.getJSON(ctx, "/games/"+url.PathEscape(gameID)+"/reviews", nil, nil, &rs)
	return rs, err
}

func (c *Client) CreateReview(ctx context.Context, ts TokenStore, gameID string, rating int, text string) error {
	in := map[string]any{"rating": rating, "text": text}
	return c.postJSON(ctx, "/games/"+url.PathEscape(gameID)+"/reviews", in, nil, ts)
}

// ---------- Auth & profile ----------

func (c *Client) Login(ctx context.Context, email, password string) (Tokens, domain.User, error) {
	var out struct {
		Tokens
		User domain.User `json:"user"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "/auth/login", in, &out, nil); err != nil {
		return Tokens{}, domain.User{}, err
	}
	return out.Tokens, out.User, nil
}

func (c *Client) Logout(ctx context.Context, ts TokenStore) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, "", ts, nil)
}

func (c *Client) Profile(ctx context.Context, ts TokenStore) (domain.User, error) {
	var u domain.User
	err := c.getJSON(ctx, "/users/me", nil, ts, &u)
	return u, err
}

// UploadAvatar sends the image as multipart form data. Backend validation
// failures come back as an *APIError whose messages are joined for display.
func (c *Client) UploadAvatar(ctx context.Context, ts TokenStore, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/users/me/avatar", nil, buf.Bytes(), mw.FormDataContentType(), ts, nil)
}

// ---------- Admin ----------

func (c *Client) CreateCategory(ctx context.Context, ts TokenStore, name string) error {
	return c.postJSON(ctx, "/categories", map[string]string{"name": name}, nil, ts)
}

func (c *Client) DeleteCategory(ctx context.Context, ts TokenStore, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, "", ts, nil)
}

func (c *Client) DeleteGame(ctx context.Context, ts TokenStore, id string) error {
	return c.do(ctx, http.MethodDelete, "/games/"+url.PathEscape(id), nil, nil, "", ts, nil)
}

func (c *Client) ListAllOrders(ctx context.Context, ts TokenStore) ([]domain.Order, error) {
	var orders []domain.Order
	err := c.getJSON(ctx, "/orders/all", nil, ts, &orders)
	return orders, err
}

// String renders the client target for startup logs.
func (c *Client) String() string { return fmt.Sprintf("backend(%s)", c.base) }

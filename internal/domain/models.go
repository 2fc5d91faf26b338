package domain

import "github.com/shopspring/decimal"

// Shapes returned by the backend API. The storefront never owns this data;
// everything here is deserialized straight off the wire.

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Image struct {
	URL string `json:"url"`
}

type Game struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Rating      float64         `json:"rating"`
	CategoryID  string          `json:"category"`
	Images      []Image         `json:"images"`
	Keys        []ActivationKey `json:"keys,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

type ActivationKey struct {
	Code string `json:"key"`
	Used bool   `json:"used"`
}

// StockCount is the number of currently unused activation keys — the "stock
// limit" the cart guard works against.
func (g Game) StockCount() int {
	n := 0
	for _, k := range g.Keys {
		if !k.Used {
			n++
		}
	}
	return n
}

type Review struct {
	ID       string  `json:"_id"`
	GameID   string  `json:"game"`
	UserName string  `json:"userName"`
	Rating   float64 `json:"rating"`
	Text     string  `json:"text"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	// Allocated activation keys for this product; present only once the
	// order is completed.
	Keys []string `json:"keys,omitempty"`
}

type Order struct {
	ID        string          `json:"_id"`
	Status    OrderStatus     `json:"status"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt string          `json:"createdAt"`
}

type User struct {
	ID     string `json:"_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"` // USER | ADMIN
	Avatar string `json:"avatar,omitempty"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == "ADMIN" }

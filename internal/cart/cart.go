// Package cart is the durable per-visitor shopping cart: an ordered set of
// line items with stock-aware quantity bounds, written through an injected
// persistence record on every mutation.
package cart

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the slice of a game captured at add-time. It is never re-synced
// from the backend afterwards.
type Snapshot struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Images    []string        `json:"images,omitempty"`
}

type Line struct {
	ID       string   `json:"id"`
	Product  Snapshot `json:"product"`
	Quantity int      `json:"quantity"`
	// UnitPrice duplicates the snapshot price so totals survive even if the
	// snapshot shape evolves.
	UnitPrice decimal.Decimal `json:"unitPrice"`
	// StockLimitAtAdd is the unused-key count observed when the line was
	// created. The increment ceiling works against this figure.
	StockLimitAtAdd int `json:"stockLimitAtAdd"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Candidate is a proposed line. StockLimitAtAdd arrives as raw text from the
// add form; the store validates it so a bug upstream cannot corrupt state.
type Candidate struct {
	Product         Snapshot
	Quantity        int
	StockLimitAtAdd string
}

type Direction int

const (
	Increment Direction = iota
	Decrement
)

// Store holds one visitor's cart. All operations are total: malformed input
// is logged and swallowed, never persisted.
type Store struct {
	mu    sync.Mutex
	rec   Persistence
	lines []Line
}

// NewStore rehydrates the cart from its persistence record. An unreadable or
// corrupt record starts the cart empty rather than failing the session.
func NewStore(rec Persistence) *Store {
	s := &Store{rec: rec}
	data, err := rec.Read()
	if err != nil {
		log.Printf("[cart] rehydrate read: %v", err)
		return s
	}
	if len(data) == 0 {
		return s
	}
	if err := json.Unmarshal(data, &s.lines); err != nil {
		log.Printf("[cart] rehydrate decode: %v", err)
		s.lines = nil
	}
	return s
}

// Lines returns a copy of the current line items in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// AddLine appends a new line for the candidate's product. Re-adding a product
// already in the cart is a no-op, as is a candidate whose stock figure does
// not parse as a non-negative integer.
func (s *Store) AddLine(c Candidate) {
	limit, err := strconv.Atoi(c.StockLimitAtAdd)
	if err != nil || limit < 0 {
		log.Printf("[cart] add rejected: bad stock limit %q for product %s", c.StockLimitAtAdd, c.Product.ProductID)
		return
	}
	if c.Quantity < 1 {
		c.Quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.Product.ProductID == c.Product.ProductID {
			return // one line per product
		}
	}
	s.lines = append(s.lines, Line{
		ID:              uuid.NewString(),
		Product:         c.Product,
		Quantity:        c.Quantity,
		UnitPrice:       c.Product.UnitPrice,
		StockLimitAtAdd: limit,
	})
	s.persistLocked()
}

// ChangeQuantity adjusts a line by one in the given direction. The quantity
// never drops below 1 and never rises above the line's recorded stock limit;
// the UI guard gives nicer messages, but the ceiling holds even for callers
// that skip it.
func (s *Store) ChangeQuantity(id string, dir Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID != id {
			continue
		}
		switch dir {
		case Increment:
			if s.lines[i].Quantity >= s.lines[i].StockLimitAtAdd {
				return
			}
			s.lines[i].Quantity++
		case Decrement:
			if s.lines[i].Quantity <= 1 {
				return
			}
			s.lines[i].Quantity--
		}
		s.persistLocked()
		return
	}
}

// Remove deletes the line unconditionally if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// Reset clears all lines.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	if err := s.rec.Clear(); err != nil {
		log.Printf("[cart] reset clear: %v", err)
	}
}

// Find returns the line with the given id, if any.
func (s *Store) Find(id string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.lines)
	if err != nil {
		log.Printf("[cart] encode: %v", err)
		return
	}
	if err := s.rec.Write(data); err != nil {
		log.Printf("[cart] persist: %v", err)
	}
}

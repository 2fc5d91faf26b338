// Package session maps the sid cookie to everything this server keeps per
// visitor: backend tokens, the explorer session, and the durable cart store.
package session

import (
	"sync"

	"github.com/jmoiron/sqlx"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/cart"
	"pixelkeys/internal/domain"
	"pixelkeys/internal/explorer"
)

// Session is one visitor. The cart is durable (sqlite record keyed by sid);
// tokens and the explorer are in-memory and do not survive a restart.
type Session struct {
	mu       sync.Mutex
	tokens   backend.Tokens
	loggedIn bool
	user     *domain.User

	Cart     *cart.Store
	Explorer *explorer.Session
}

// Tokens implements backend.TokenStore.
func (s *Session) Tokens() (backend.Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, s.loggedIn
}

func (s *Session) SetTokens(t backend.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	s.loggedIn = true
}

// Clear drops the auth state (refresh failed or explicit logout). The cart
// stays: logging out does not empty a cart.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = backend.Tokens{}
	s.loggedIn = false
	s.user = nil
}

func (s *Session) SetUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Registry hands out sessions by sid, creating them on first touch.
type Registry struct {
	mu       sync.Mutex
	db       *sqlx.DB
	fetcher  explorer.Fetcher
	sessions map[string]*Session
}

func NewRegistry(db *sqlx.DB, f explorer.Fetcher) *Registry {
	return &Registry{db: db, fetcher: f, sessions: make(map[string]*Session)}
}

func (r *Registry) Get(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sid]; ok {
		return s
	}
	s := &Session{
		Cart:     cart.NewStore(cart.NewSQLiteRecord(r.db, "cart:"+sid)),
		Explorer: explorer.NewSession(r.fetcher),
	}
	r.sessions[sid] = s
	return s
}

// Expire disposes a session: pending explorer timers are cancelled so no
// callback runs against a dead session. The persisted cart record remains.
func (r *Registry) Expire(sid string) {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if ok {
		s.Explorer.Close()
	}
}

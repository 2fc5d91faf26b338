// Package explorer drives the product listing: one canonical query state per
// visitor, fetches against the backend keyed by the serialized query, and a
// second, client-side pagination layer over the already-fetched batch.
package explorer

import (
	"context"
	"net/url"
	"sync"
	"time"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/domain"
	"pixelkeys/internal/query"
	"pixelkeys/internal/timing"
)

const (
	// ClientPageSize slices the fetched batch for display. Deliberately a
	// separate constant from the server perPage; the two counters never mix.
	ClientPageSize = 8

	// PriceDebounce is the quiet window before free-typed price bounds are
	// committed to the query state.
	PriceDebounce = 500 * time.Millisecond

	// LoadingFloor keeps the skeleton visible at least this long.
	LoadingFloor = 300 * time.Millisecond
)

// Fetcher is the one backend call the explorer needs.
type Fetcher interface {
	ListGames(ctx context.Context, filters url.Values) (backend.GamesPage, error)
}

// Session is one visitor's explorer. Mutations are serialized by the mutex;
// fetches run outside it and are discarded when superseded.
type Session struct {
	mu        sync.Mutex
	fetch     Fetcher
	state     query.State
	indicator *timing.Indicator
	debounce  *timing.Debouncer

	pendingMin string
	pendingMax string

	gen        uint64 // bumped per issued fetch; stale resolutions bail out
	appliedKey string // key of the batch currently held
	games      []domain.Game
	total      int
	fetchErr   error
	clientPage int
	closed     bool
}

func NewSession(f Fetcher) *Session {
	return &Session{
		fetch:      f,
		state:      query.NewState(),
		indicator:  timing.NewIndicator(LoadingFloor),
		debounce:   timing.NewDebouncer(PriceDebounce),
		clientPage: 1,
	}
}

func (s *Session) State() query.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply routes one filter edit into the query state.
func (s *Session) Apply(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Apply(key, value)
}

func (s *Session) ToggleCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ToggleCategory(id)
}

func (s *Session) ToggleRating(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ToggleRating(r)
}

// EditPriceRange buffers free-typed bounds and commits them only after the
// debounce window passes with no further edits, so a burst of keystrokes
// becomes exactly one query update carrying the final values.
func (s *Session) EditPriceRange(min, max string) {
	s.mu.Lock()
	s.pendingMin, s.pendingMax = min, max
	s.mu.Unlock()
	s.debounce.Trigger(s.commitPriceRange)
}

func (s *Session) commitPriceRange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_ = s.state.Apply("minPrice", s.pendingMin)
	_ = s.state.Apply("maxPrice", s.pendingMax)
}

// FlushPriceRange commits any buffered bounds immediately (form submits do
// not wait for quiescence).
func (s *Session) FlushPriceRange() {
	s.debounce.Cancel()
	s.commitPriceRange()
}

// Sync fetches the listing if the serialized query no longer matches the
// held batch. A resolution that arrives after a newer query was issued is
// dropped; a failed fetch keeps the previously displayed batch.
func (s *Session) Sync(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	key := s.state.Key()
	if key == s.appliedKey && s.games != nil {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	filters := s.state.Values()
	s.mu.Unlock()

	s.indicator.Begin()
	page, err := s.fetch.ListGames(ctx, filters)
	s.indicator.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return // superseded by a newer query
	}
	if err != nil {
		s.fetchErr = err
		return
	}
	s.fetchErr = nil
	s.games = page.Games
	s.total = page.Length
	s.appliedKey = key
	s.clientPage = 1 // new batch, display restarts at the first slice
}

// SetClientPage moves the display cursor. It only re-slices held data.
func (s *Session) SetClientPage(k int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := clientPages(len(s.games))
	if k < 1 {
		k = 1
	}
	if k > pages {
		k = pages
	}
	s.clientPage = k
}

func (s *Session) ClientPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientPage
}

func (s *Session) ClientPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clientPages(len(s.games))
}

// Visible returns the slice of the held batch for the current client page.
func (s *Session) Visible() []domain.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Paginate(s.games, s.clientPage, ClientPageSize)
}

// Total is the server-reported match count for the whole query.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

func (s *Session) Loading() bool { return s.indicator.Loading() }

// Close cancels pending timers; no state mutates afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.debounce.Cancel()
	s.indicator.Close()
}

func clientPages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + ClientPageSize - 1) / ClientPageSize
}

// Paginate slices page k (1-indexed) of size out of items, clipped to the
// slice bounds.
func Paginate(items []domain.Game, page, size int) []domain.Game {
	if page < 1 || size < 1 {
		return nil
	}
	lo := (page - 1) * size
	if lo >= len(items) {
		return nil
	}
	hi := lo + size
	if hi > len(items) {
		hi = len(items)
	}
	return items[lo:hi]
}

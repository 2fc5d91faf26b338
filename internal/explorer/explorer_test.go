package explorer_test

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/domain"
	"pixelkeys/internal/explorer"
)

// fakeFetcher serves a fixed number of games and records every request. A
// per-call gate lets tests hold a fetch open to race it against a newer one.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []url.Values
	count int
	fail  bool
	gate  chan struct{}
}

func (f *fakeFetcher) ListGames(ctx context.Context, filters url.Values) (backend.GamesPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filters)
	count, fail, gate := f.count, f.fail, f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return backend.GamesPage{}, fmt.Errorf("backend down")
	}
	games := make([]domain.Game, count)
	for i := range games {
		games[i] = domain.Game{ID: fmt.Sprintf("g%d", i), Name: fmt.Sprintf("Game %d", i)}
	}
	return backend.GamesPage{Games: games, Length: count}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestPaginate_Determinism(t *testing.T) {
	items := make([]domain.Game, 10)
	for i := range items {
		items[i] = domain.Game{ID: fmt.Sprintf("g%d", i)}
	}

	p1 := explorer.Paginate(items, 1, 4)
	p2 := explorer.Paginate(items, 2, 4)
	p3 := explorer.Paginate(items, 3, 4)
	require.Len(t, p1, 4)
	require.Len(t, p2, 4)
	require.Len(t, p3, 2)
	assert.Equal(t, "g0", p1[0].ID)
	assert.Equal(t, "g4", p2[0].ID)
	assert.Equal(t, "g8", p3[0].ID)

	assert.Empty(t, explorer.Paginate(items, 4, 4), "past the end yields nothing")
	assert.Empty(t, explorer.Paginate(items, 0, 4), "pages are 1-indexed")
}

func TestSync_FetchesOncePerQueryKey(t *testing.T) {
	f := &fakeFetcher{count: 3}
	ex := explorer.NewSession(f)
	defer ex.Close()

	ex.Sync(context.Background())
	ex.Sync(context.Background())
	assert.Equal(t, 1, f.callCount(), "unchanged query must not refetch")

	require.NoError(t, ex.Apply("searchTerm", "doom"))
	ex.Sync(context.Background())
	assert.Equal(t, 2, f.callCount())
	assert.Equal(t, "doom", f.calls[1].Get("searchTerm"))
}

func TestSync_NewQueryResetsClientPage(t *testing.T) {
	f := &fakeFetcher{count: 20}
	ex := explorer.NewSession(f)
	defer ex.Close()

	ex.Sync(context.Background())
	ex.SetClientPage(3)
	require.Equal(t, 3, ex.ClientPage())

	require.NoError(t, ex.Apply("sort", "highest_price"))
	ex.Sync(context.Background())
	assert.Equal(t, 1, ex.ClientPage(), "a new batch restarts the display at page 1")
}

func TestSetClientPage_OnlyReslices(t *testing.T) {
	f := &fakeFetcher{count: 20}
	ex := explorer.NewSession(f)
	defer ex.Close()
	ex.Sync(context.Background())
	fetched := f.callCount()

	ex.SetClientPage(2)
	ex.SetClientPage(3)
	ex.SetClientPage(99) // clamped to the last page
	assert.Equal(t, fetched, f.callCount(), "paging through held data must not refetch")
	assert.Equal(t, ex.ClientPages(), ex.ClientPage())

	// 20 games at 8 per display page: 8, 8, 4.
	assert.Equal(t, 3, ex.ClientPages())
	assert.Len(t, ex.Visible(), 4)
}

func TestSync_FailureKeepsPreviousBatch(t *testing.T) {
	f := &fakeFetcher{count: 5}
	ex := explorer.NewSession(f)
	defer ex.Close()
	ex.Sync(context.Background())
	require.Len(t, ex.Visible(), 5)

	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()
	require.NoError(t, ex.Apply("searchTerm", "broken"))
	ex.Sync(context.Background())

	assert.Error(t, ex.Err())
	assert.Len(t, ex.Visible(), 5, "stale-but-rendered data beats an empty grid")

	// Recovery clears the error and swaps the batch in.
	f.mu.Lock()
	f.fail = false
	f.count = 2
	f.mu.Unlock()
	ex.Sync(context.Background())
	assert.NoError(t, ex.Err())
	assert.Len(t, ex.Visible(), 2)
}

// A slow resolution for an old query must not overwrite the result of a
// newer one.
func TestSync_SupersededFetchDiscarded(t *testing.T) {
	f := &fakeFetcher{count: 10, gate: make(chan struct{})}
	ex := explorer.NewSession(f)
	defer ex.Close()

	done := make(chan struct{})
	go func() {
		ex.Sync(context.Background()) // blocks on the gate
		close(done)
	}()
	// Wait for the first fetch to be in flight.
	for f.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Issue a newer query and let it complete immediately.
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.count = 2
	f.mu.Unlock()
	require.NoError(t, ex.Apply("searchTerm", "fresh"))
	ex.Sync(context.Background())
	require.Len(t, ex.Visible(), 2)

	// Release the stale fetch; its 10-game payload must be dropped.
	close(gate)
	<-done
	assert.Len(t, ex.Visible(), 2, "superseded resolution overwrote newer results")
	assert.Equal(t, 2, ex.Total())
}

package timing

import (
	"sync"
	"time"
)

// Indicator is the two-state (idle/loading) skeleton indicator. It leaves
// the loading state only after both the fetch has completed and a minimum
// display floor has elapsed, so very fast responses do not flicker.
type Indicator struct {
	mu        sync.Mutex
	floorLen  time.Duration
	loading   bool
	fetching  bool
	floorDone bool
	floor     *Timer
}

func NewIndicator(floor time.Duration) *Indicator {
	return &Indicator{floorLen: floor}
}

// Begin marks a fetch in flight and (re)enters the loading state. The floor
// timer is rearmed on every entry, so a re-triggered load restarts the floor.
func (in *Indicator) Begin() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.fetching = true
	in.loading = true
	in.floorDone = false
	if in.floor != nil {
		in.floor.Cancel()
	}
	in.floor = Arm(in.floorLen, in.floorElapsed)
}

func (in *Indicator) floorElapsed() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.floorDone = true
	if !in.fetching {
		in.loading = false
	}
}

// End marks the fetch complete (success or error). The indicator stays
// loading until the floor timer has also fired.
func (in *Indicator) End() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.fetching = false
	if in.floorDone {
		in.loading = false
	}
}

func (in *Indicator) Loading() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loading
}

// Close cancels the pending floor timer; the indicator must not mutate
// state after the owning session is disposed.
func (in *Indicator) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.floor != nil {
		in.floor.Cancel()
		in.floor = nil
	}
	in.fetching = false
	in.loading = false
}

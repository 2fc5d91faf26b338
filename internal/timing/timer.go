// Package timing holds the cancellable-timer primitives the storefront uses
// for input debouncing and the minimum loading-indicator display floor.
package timing

import (
	"sync"
	"time"
)

// Timer is a single-shot armed callback. Cancel guarantees the callback will
// not run after it returns, even if the underlying timer already fired.
type Timer struct {
	mu        sync.Mutex
	t         *time.Timer
	cancelled bool
}

func Arm(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		tm.mu.Lock()
		dead := tm.cancelled
		tm.mu.Unlock()
		if dead {
			return
		}
		fn()
	})
	return tm
}

func (tm *Timer) Cancel() {
	tm.mu.Lock()
	tm.cancelled = true
	tm.mu.Unlock()
	tm.t.Stop()
}

// Debouncer coalesces rapid triggers into one callback: each Trigger cancels
// the pending timer and arms a fresh one, so only the last call within a
// quiet window runs.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending *Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
	}
	d.pending = Arm(d.delay, fn)
}

// Cancel drops any pending callback. Safe to call repeatedly.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}

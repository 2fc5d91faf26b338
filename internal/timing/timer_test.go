package timing_test

import (
	"sync/atomic"
	"testing"
	"time"

	"pixelkeys/internal/timing"
)

func TestTimer_FiresOnce(t *testing.T) {
	var n atomic.Int32
	timing.Arm(10*time.Millisecond, func() { n.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if got := n.Load(); got != 1 {
		t.Fatalf("want 1 firing, got %d", got)
	}
}

func TestTimer_CancelPreventsCallback(t *testing.T) {
	var n atomic.Int32
	tm := timing.Arm(10*time.Millisecond, func() { n.Add(1) })
	tm.Cancel()
	time.Sleep(50 * time.Millisecond)
	if got := n.Load(); got != 0 {
		t.Fatalf("cancelled timer fired %d times", got)
	}
}

// Rapid triggers within the window collapse into exactly one callback, and
// that callback sees only the final value.
func TestDebouncer_Coalesces(t *testing.T) {
	d := timing.NewDebouncer(30 * time.Millisecond)
	var fired atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		v := int32(i)
		d.Trigger(func() {
			fired.Add(1)
			last.Store(v)
		})
		time.Sleep(5 * time.Millisecond) // well inside the window
	}
	time.Sleep(80 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Fatalf("want exactly 1 committed update, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Fatalf("commit must carry the final value, got %d", got)
	}
}

func TestDebouncer_CancelDropsPending(t *testing.T) {
	d := timing.NewDebouncer(20 * time.Millisecond)
	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("cancel must drop the pending callback")
	}
}

// A fetch faster than the floor keeps the indicator loading until the floor
// elapses; a fetch slower than the floor goes idle at completion.
func TestIndicator_MinimumFloor(t *testing.T) {
	in := timing.NewIndicator(60 * time.Millisecond)

	in.Begin()
	in.End() // instant response
	if !in.Loading() {
		t.Fatal("indicator dropped before the display floor")
	}
	time.Sleep(100 * time.Millisecond)
	if in.Loading() {
		t.Fatal("indicator stuck after floor and completion")
	}

	in.Begin()
	time.Sleep(100 * time.Millisecond) // floor passes, fetch still running
	if !in.Loading() {
		t.Fatal("indicator must stay up while the fetch is in flight")
	}
	in.End()
	if in.Loading() {
		t.Fatal("indicator must drop once both conditions hold")
	}
}

// Re-entering loading rearms the floor timer.
func TestIndicator_ReentryRearmsFloor(t *testing.T) {
	in := timing.NewIndicator(50 * time.Millisecond)
	in.Begin()
	time.Sleep(30 * time.Millisecond)
	in.Begin() // retriggered before the first floor fired
	in.End()
	time.Sleep(30 * time.Millisecond) // first floor's deadline has passed
	if !in.Loading() {
		t.Fatal("rearmed floor must restart the countdown")
	}
	time.Sleep(40 * time.Millisecond)
	if in.Loading() {
		t.Fatal("indicator should be idle after the rearmed floor")
	}
}

func TestIndicator_CloseCancels(t *testing.T) {
	in := timing.NewIndicator(20 * time.Millisecond)
	in.Begin()
	in.Close()
	if in.Loading() {
		t.Fatal("closed indicator must read idle")
	}
	time.Sleep(50 * time.Millisecond) // the floor callback must not resurrect it
	if in.Loading() {
		t.Fatal("floor timer fired after close")
	}
}

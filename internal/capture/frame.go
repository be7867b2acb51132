package capture

import "sync"

// FrameScheduler holds at most one pending frame callback, like a browser
// animation frame request. The owner drives it with Tick.
type FrameScheduler struct {
	mu      sync.Mutex
	pending func(now int64)
}

// Request schedules fn for the next tick, replacing any pending callback.
func (f *FrameScheduler) Request(fn func(now int64)) {
	f.mu.Lock()
	f.pending = fn
	f.mu.Unlock()
}

// Cancel drops the pending callback.
func (f *FrameScheduler) Cancel() {
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}

// Pending reports whether a callback is scheduled.
func (f *FrameScheduler) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}

// Tick runs the pending callback once, outside the lock. It reports whether
// a callback ran.
func (f *FrameScheduler) Tick(now int64) bool {
	f.mu.Lock()
	fn := f.pending
	f.pending = nil
	f.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(now)
	return true
}

package scroll

import (
	"sync"
	"time"
)

// Throttler admits at most one call per interval. The first call in a
// window runs; the rest of the window is dropped, with no trailing call.
type Throttler struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewThrottler creates a throttler with the given window.
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{interval: interval, now: time.Now}
}

// Allow reports whether a call arriving now should run.
func (t *Throttler) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

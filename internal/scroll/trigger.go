// Package scroll fires "load more" when a scrollable view nears its end.
//
// The view itself is abstracted as a ProximityObserver so the trigger can be
// driven by a terminal viewport or by a test double.
package scroll

import (
	"sync"
	"time"

	"profilegrid/internal/logging"
)

// Defaults.
const (
	DefaultThreshold = 300
	DefaultThrottle  = 150 * time.Millisecond
)

// Position is a scroll state in logical units.
type Position struct {
	Offset         int
	ViewportHeight int
	ContentHeight  int
}

// NearBottom reports whether the visible window ends within threshold units
// of the end of the content.
func (p Position) NearBottom(threshold int) bool {
	return p.Offset+p.ViewportHeight >= p.ContentHeight-threshold
}

// ProximityObserver delivers scroll positions. Observe registers fn and
// returns a function that removes it.
type ProximityObserver interface {
	Observe(fn func(Position)) (detach func())
}

// Options configures a Trigger.
type Options struct {
	Threshold int
	Throttle  time.Duration
	Enabled   bool
}

// DefaultOptions returns the standard threshold and throttle, enabled.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Throttle: DefaultThrottle, Enabled: true}
}

// Trigger calls onLoadMore at most once per approach to the bottom.
// After firing it stays quiet until the caller's loading flag goes from
// true back to false, or until Reset. onLoadMore must not call Detach.
type Trigger struct {
	// cbMu is held from the final state check through onLoadMore.
	cbMu sync.Mutex

	mu         sync.Mutex
	observer   ProximityObserver
	onLoadMore func()
	opts       Options
	throttle   *Throttler

	active   bool
	hasItems bool
	loading  bool
	fired    bool
	detach   func()
}

// New creates a detached trigger. Call Attach to start observing.
func New(observer ProximityObserver, onLoadMore func(), opts Options) *Trigger {
	if opts.Threshold < 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Trigger{
		observer:   observer,
		onLoadMore: onLoadMore,
		opts:       opts,
		throttle:   NewThrottler(opts.Throttle),
	}
}

// Attach starts observing. Observation only happens while the trigger is
// enabled and there are items.
func (t *Trigger) Attach() {
	t.mu.Lock()
	t.active = true
	t.syncLocked()
	t.mu.Unlock()
}

// Detach stops observing. A callback already running is waited for, and no
// callback runs after Detach returns.
func (t *Trigger) Detach() {
	t.mu.Lock()
	t.active = false
	t.syncLocked()
	t.mu.Unlock()

	// Wait out a callback that passed its checks before the detach.
	t.cbMu.Lock()
	t.cbMu.Unlock()
}

func (t *Trigger) attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detach != nil
}

// SetEnabled turns the feature on or off.
func (t *Trigger) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.opts.Enabled = enabled
	t.syncLocked()
	t.mu.Unlock()
}

// SetHasItems tells the trigger whether the list is non-empty.
func (t *Trigger) SetHasItems(hasItems bool) {
	t.mu.Lock()
	t.hasItems = hasItems
	t.syncLocked()
	t.mu.Unlock()
}

// SetLoading mirrors the caller's loading flag. A true to false transition
// re-arms the trigger.
func (t *Trigger) SetLoading(loading bool) {
	t.mu.Lock()
	if t.loading && !loading {
		t.fired = false
	}
	t.loading = loading
	t.mu.Unlock()
}

// Reset re-arms the trigger without a loading transition, e.g. when the
// load it asked for was rejected.
func (t *Trigger) Reset() {
	t.mu.Lock()
	t.fired = false
	t.mu.Unlock()
}

// SetOptions replaces threshold, throttle and enabled.
func (t *Trigger) SetOptions(opts Options) {
	t.mu.Lock()
	if opts.Threshold < 0 {
		opts.Threshold = DefaultThreshold
	}
	t.opts = opts
	t.throttle = NewThrottler(opts.Throttle)
	t.syncLocked()
	t.mu.Unlock()
}

// syncLocked registers or removes the observation to match state.
func (t *Trigger) syncLocked() {
	want := t.active && t.opts.Enabled && t.hasItems
	switch {
	case want && t.detach == nil:
		t.detach = t.observer.Observe(t.handle)
		logging.ScrollDebug("Scroll trigger attached (threshold=%d throttle=%s)", t.opts.Threshold, t.opts.Throttle)
	case !want && t.detach != nil:
		t.detach()
		t.detach = nil
		logging.ScrollDebug("Scroll trigger detached")
	}
}

func (t *Trigger) handle(pos Position) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()

	t.mu.Lock()
	throttle := t.throttle
	t.mu.Unlock()
	if !throttle.Allow() {
		return
	}

	t.mu.Lock()
	if t.detach == nil || !t.opts.Enabled || !t.hasItems || t.loading || t.fired {
		t.mu.Unlock()
		return
	}
	if !pos.NearBottom(t.opts.Threshold) {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()

	logging.ScrollDebug("Near bottom (offset=%d viewport=%d content=%d), loading more",
		pos.Offset, pos.ViewportHeight, pos.ContentHeight)
	t.onLoadMore()
}

package ui

import (
	"sync"

	"profilegrid/internal/scroll"

	"github.com/charmbracelet/bubbles/viewport"
)

// ViewportObserver publishes a viewport's scroll position to whoever is
// observing it. Positions are reported in RowUnits per terminal row.
type ViewportObserver struct {
	mu        sync.Mutex
	observers map[int]func(scroll.Position)
	nextID    int
}

func NewViewportObserver() *ViewportObserver {
	return &ViewportObserver{observers: make(map[int]func(scroll.Position))}
}

// Observe implements scroll.ProximityObserver.
func (o *ViewportObserver) Observe(fn func(scroll.Position)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.observers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// Publish reports the viewport's current position.
func (o *ViewportObserver) Publish(vp viewport.Model) {
	o.PublishPosition(PositionOf(vp))
}

// PublishPosition reports an explicit position.
func (o *ViewportObserver) PublishPosition(pos scroll.Position) {
	o.mu.Lock()
	fns := make([]func(scroll.Position), 0, len(o.observers))
	for _, fn := range o.observers {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(pos)
	}
}

// PositionOf converts viewport rows to logical scroll units.
func PositionOf(vp viewport.Model) scroll.Position {
	return scroll.Position{
		Offset:         vp.YOffset * RowUnits,
		ViewportHeight: vp.Height * RowUnits,
		ContentHeight:  vp.TotalLineCount() * RowUnits,
	}
}

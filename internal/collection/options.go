package collection

import (
	"time"

	"profilegrid/internal/profile"
)

// Defaults for the timing floors and batch size.
const (
	DefaultBatchSize           = 3
	DefaultGenerateMinDuration = 300 * time.Millisecond
	DefaultButtonMinDuration   = 300 * time.Millisecond
	DefaultScrollMinDuration   = 900 * time.Millisecond
)

// Option configures a Manager.
type Option func(*Manager)

// WithBatchSize sets how many profiles the initial fetch and each page request.
func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithMinDurations sets the minimum visible duration of the generate,
// button load-more and scroll load-more indicators. Zero disables a floor.
func WithMinDurations(generate, button, scroll time.Duration) Option {
	return func(m *Manager) {
		m.generateMin = generate
		m.buttonMin = button
		m.scrollMin = scroll
	}
}

// WithBackgroundWrites lets mutations return before their store writes land.
// Writes still land in order; Manager.Flush waits for them.
func WithBackgroundWrites() Option {
	return func(m *Manager) { m.background = true }
}

// WithIDGenerator replaces the generator used for uniqueness resolution.
func WithIDGenerator(gen profile.IDGenerator) Option {
	return func(m *Manager) { m.newID = gen }
}

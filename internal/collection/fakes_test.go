package collection

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"profilegrid/internal/persist"
	"profilegrid/internal/profile"
	"profilegrid/internal/store"

	"github.com/stretchr/testify/require"
)

type call struct {
	count, page int
}

type reply struct {
	profiles []profile.Profile
	err      error
}

// fakeSource answers queued replies in order. With an empty queue it
// generates count fresh profiles. A non-nil gate blocks every call until a
// value is received from it (or it is closed).
type fakeSource struct {
	mu      sync.Mutex
	calls   []call
	queue   []reply
	gate    chan struct{}
	started chan struct{}
	serial  int
}

func newFakeSource(replies ...reply) *fakeSource {
	return &fakeSource{queue: replies}
}

func (f *fakeSource) Profiles(ctx context.Context, count, page int) ([]profile.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{count, page})
	var r reply
	if len(f.queue) > 0 {
		r, f.queue = f.queue[0], f.queue[1:]
	} else {
		for i := 0; i < count; i++ {
			f.serial++
			id := fmt.Sprintf("gen-%d", f.serial)
			r.profiles = append(r.profiles, mk(id, "Gen", id, "Nowhere"))
		}
	}
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.profiles, r.err
}

func (f *fakeSource) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// block makes subsequent calls wait on the returned gate. Each call sends on
// started before waiting.
func (f *fakeSource) block() (gate, started chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 8)
	return f.gate, f.started
}

func mk(uuid, first, last, country string) profile.Profile {
	var p profile.Profile
	p.ID = uuid
	p.Login.UUID = uuid
	p.Name.First = first
	p.Name.Last = last
	p.Location.Country = country
	return p
}

func counterIDs() profile.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("minted-%d", n)
	}
}

// newTestManager wires a manager to an in-memory KV with no duration floors.
func newTestManager(t *testing.T, src Source, opts ...Option) (*Manager, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	opts = append([]Option{WithMinDurations(0, 0, 0), WithIDGenerator(counterIDs())}, opts...)
	return New(src, persist.New(kv), opts...), kv
}

func uuids(ps []profile.Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.UUID()
	}
	return out
}

func names(ps []profile.Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.FullName()
	}
	return out
}

func requireUniqueUUIDs(t *testing.T, m *Manager) {
	t.Helper()
	snap := m.Snapshot()
	// Search may hide records; check the whole collection.
	m.mu.Lock()
	all := uuids(m.profiles)
	m.mu.Unlock()
	seen := make(map[string]bool, len(all))
	for _, id := range all {
		require.False(t, seen[id], "duplicate uuid %q", id)
		require.NotEmpty(t, id)
		seen[id] = true
	}
	require.Equal(t, snap.Total, len(all))
}

// Package collection owns the in-memory profile collection: fetching,
// paging, uniqueness resolution, search, sort, selection and persistence.
//
// A Manager is constructed explicitly and shared by reference. All state is
// guarded by one mutex which is never held while waiting on the remote source
// or the store.
package collection

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"profilegrid/internal/logging"
	"profilegrid/internal/profile"
)

// ErrBusy is returned when an operation of the same kind is already running.
var ErrBusy = errors.New("operation already in progress")

// Source supplies pages of freshly generated profiles. A page <= 0 means
// "no page parameter".
type Source interface {
	Profiles(ctx context.Context, count, page int) ([]profile.Profile, error)
}

// Persister is the best-effort store for collection state. Implementations
// must not fail: loads return defaults and saves swallow their errors.
type Persister interface {
	LoadProfiles(ctx context.Context) []profile.Profile
	SaveProfiles(ctx context.Context, profiles []profile.Profile)
	LoadSearchTerm(ctx context.Context) string
	SaveSearchTerm(ctx context.Context, term string)
	LoadSortOption(ctx context.Context) profile.SortOption
	SaveSortOption(ctx context.Context, opt profile.SortOption)
}

// Trigger identifies what asked for another page.
type Trigger int

const (
	TriggerButton Trigger = iota
	TriggerScroll
)

func (t Trigger) String() string {
	if t == TriggerScroll {
		return "scroll"
	}
	return "button"
}

type opKind string

const (
	kindInitial  opKind = "initial"
	kindGenerate opKind = "generate"
	kindLoadMore opKind = "loadMore"
)

// Manager is the profile collection state owner.
type Manager struct {
	source    Source
	store     Persister
	batchSize int
	newID     profile.IDGenerator

	// writes holds store writes made by mutations. Unless background is
	// set, each mutation flushes it before returning.
	writes     *writeQueue
	background bool

	mu          sync.Mutex
	generateMin time.Duration
	buttonMin   time.Duration
	scrollMin   time.Duration

	profiles   []profile.Profile
	pageCursor int
	searchTerm string
	sortOption profile.SortOption
	selectedID string
	detailOpen bool

	loading           bool
	loadingMore       bool
	loadingMoreButton bool
	loadingNewProfile bool
	lastError         string

	// epoch increments on DeleteAll; fetches started under an older epoch
	// drop their results.
	epoch    uint64
	inFlight map[opKind]bool

	listenerMu sync.Mutex
	listeners  map[int]func()
	nextID     int
}

// New creates a manager. A nil persister keeps state in memory only.
func New(source Source, store Persister, opts ...Option) *Manager {
	if store == nil {
		store = nopPersister{}
	}
	m := &Manager{
		source:      source,
		store:       store,
		batchSize:   DefaultBatchSize,
		newID:       profile.NewID,
		writes:      newWriteQueue(),
		generateMin: DefaultGenerateMinDuration,
		buttonMin:   DefaultButtonMinDuration,
		scrollMin:   DefaultScrollMinDuration,
		profiles:    []profile.Profile{},
		pageCursor:  1,
		sortOption:  profile.DefaultSort,
		inFlight:    make(map[opKind]bool),
		listeners:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Init restores persisted state. A non-empty stored list is adopted as-is;
// otherwise the initial fetch runs and its error, if any, is returned.
func (m *Manager) Init(ctx context.Context) error {
	if m.Restore(ctx) {
		return nil
	}
	logging.State("No stored profiles, fetching initial batch")
	return m.FetchInitial(ctx)
}

// Restore loads the persisted list, search term and sort option without
// fetching. It reports whether a non-empty list was adopted.
func (m *Manager) Restore(ctx context.Context) bool {
	m.writes.flush()
	stored := m.store.LoadProfiles(ctx)
	term := m.store.LoadSearchTerm(ctx)
	opt := m.store.LoadSortOption(ctx)

	m.mu.Lock()
	m.searchTerm = term
	m.sortOption = opt
	if len(stored) > 0 {
		m.profiles = stored
		m.pageCursor = 1
	}
	m.mu.Unlock()

	if len(stored) > 0 {
		logging.State("Restored %d profiles (search=%q sort=%s)", len(stored), term, opt)
	}
	m.notify()
	return len(stored) > 0
}

// FetchInitial replaces the collection with one freshly fetched batch and
// resets the page cursor. On failure the error is recorded in LastError and
// the collection is left as it was.
func (m *Manager) FetchInitial(ctx context.Context) error {
	epoch, err := m.begin(kindInitial, func() { m.loading = true })
	if err != nil {
		return err
	}
	defer m.end(kindInitial)

	timer := logging.StartTimer(logging.CategoryState, "FetchInitial")
	defer timer.Stop()

	fetched, err := m.source.Profiles(ctx, m.batchSize, 0)

	m.mu.Lock()
	m.loading = false
	switch {
	case err != nil:
		m.lastError = err.Error()
		logging.StateWarn("Initial fetch failed: %v", err)
	case epoch != m.epoch:
		logging.StateDebug("Initial fetch discarded: collection cleared while fetching")
	default:
		m.profiles = profile.Admit(nil, fetched, m.newID)
		m.pageCursor = 1
		m.persistProfilesLocked(ctx)
		logging.State("Initial fetch admitted %d profiles", len(m.profiles))
	}
	m.mu.Unlock()
	m.settle()
	m.notify()
	return err
}

// Retry re-runs the initial fetch.
func (m *Manager) Retry(ctx context.Context) error {
	return m.FetchInitial(ctx)
}

// =============================================================================
// APPENDING
// =============================================================================

// GenerateOne fetches a single profile and appends it. The returned slice
// holds the admitted record, or is empty if a DeleteAll happened meanwhile.
func (m *Manager) GenerateOne(ctx context.Context) ([]profile.Profile, error) {
	var floor time.Duration
	epoch, err := m.begin(kindGenerate, func() {
		m.loadingNewProfile = true
		floor = m.generateMin
	})
	if err != nil {
		return nil, err
	}
	defer m.end(kindGenerate)

	var fetched []profile.Profile
	err = withMinDuration(ctx, floor, func(ctx context.Context) error {
		var ferr error
		fetched, ferr = m.source.Profiles(ctx, 1, 0)
		return ferr
	})

	m.mu.Lock()
	m.loadingNewProfile = false
	admitted, err := m.appendLocked(ctx, epoch, fetched, err, "generate")
	m.mu.Unlock()
	m.settle()
	m.notify()
	return admitted, err
}

// LoadMore requests the next page and appends it. Button and scroll
// triggers drive separate loading flags and minimum durations but share one
// in-flight slot.
func (m *Manager) LoadMore(ctx context.Context, trigger Trigger) ([]profile.Profile, error) {
	var page int
	var floor time.Duration
	epoch, err := m.begin(kindLoadMore, func() {
		page = m.pageCursor + 1
		m.setLoadMoreFlag(trigger, true)
		floor = m.buttonMin
		if trigger == TriggerScroll {
			floor = m.scrollMin
		}
	})
	if err != nil {
		return nil, err
	}
	defer m.end(kindLoadMore)

	var fetched []profile.Profile
	err = withMinDuration(ctx, floor, func(ctx context.Context) error {
		var ferr error
		fetched, ferr = m.source.Profiles(ctx, m.batchSize, page)
		return ferr
	})

	m.mu.Lock()
	if err != nil {
		m.loadingMore = false
		m.loadingMoreButton = false
	} else {
		m.setLoadMoreFlag(trigger, false)
	}
	stale := epoch != m.epoch
	admitted, err := m.appendLocked(ctx, epoch, fetched, err, "load more ("+trigger.String()+")")
	if err == nil && !stale {
		m.pageCursor = page
	}
	m.mu.Unlock()
	m.settle()
	m.notify()
	return admitted, err
}

func (m *Manager) setLoadMoreFlag(trigger Trigger, v bool) {
	if trigger == TriggerScroll {
		m.loadingMore = v
	} else {
		m.loadingMoreButton = v
	}
}

// appendLocked admits fetched records against the current collection.
// Caller holds m.mu.
func (m *Manager) appendLocked(ctx context.Context, epoch uint64, fetched []profile.Profile, err error, op string) ([]profile.Profile, error) {
	if err != nil {
		m.lastError = err.Error()
		logging.StateWarn("%s failed: %v", op, err)
		return nil, err
	}
	if epoch != m.epoch {
		logging.StateDebug("%s discarded %d profiles: collection cleared while fetching", op, len(fetched))
		return nil, nil
	}
	admitted := profile.Admit(m.profiles, fetched, m.newID)
	m.profiles = append(slices.Clip(m.profiles), admitted...)
	m.persistProfilesLocked(ctx)
	logging.State("%s appended %d profiles (total %d)", op, len(admitted), len(m.profiles))
	return admitted, nil
}

// =============================================================================
// REMOVAL
// =============================================================================

// Delete removes the profile with the given uuid. Deleting the selected
// profile also closes the detail view. Reports whether anything was removed.
func (m *Manager) Delete(ctx context.Context, uuid string) bool {
	m.mu.Lock()
	idx := slices.IndexFunc(m.profiles, func(p profile.Profile) bool { return p.UUID() == uuid })
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.profiles = slices.Delete(slices.Clone(m.profiles), idx, idx+1)
	if m.selectedID == uuid {
		m.selectedID = ""
		m.detailOpen = false
	}
	m.persistProfilesLocked(ctx)
	m.mu.Unlock()
	m.settle()

	logging.State("Deleted profile %s", uuid)
	m.notify()
	return true
}

// DeleteAll empties the collection, closes the detail view and writes the
// empty list through before returning, even with background writes.
// Fetches already running drop their results.
func (m *Manager) DeleteAll(ctx context.Context) {
	m.mu.Lock()
	removed := len(m.profiles)
	m.profiles = []profile.Profile{}
	m.selectedID = ""
	m.detailOpen = false
	m.epoch++
	m.persistProfilesLocked(ctx)
	m.mu.Unlock()
	m.writes.flush()

	logging.State("Deleted all %d profiles", removed)
	m.notify()
}

// =============================================================================
// VIEW STATE
// =============================================================================

// SetSearchTerm replaces and persists the search term. Any string is accepted.
func (m *Manager) SetSearchTerm(ctx context.Context, term string) {
	m.mu.Lock()
	if m.searchTerm == term {
		m.mu.Unlock()
		return
	}
	m.searchTerm = term
	m.persistLocked(ctx, keySearchTerm, func(ctx context.Context) { m.store.SaveSearchTerm(ctx, term) })
	m.mu.Unlock()
	m.settle()

	logging.StateDebug("Search term set to %q", term)
	m.notify()
}

// SetSortOption replaces and persists the sort option. Unknown options fall
// back to the default.
func (m *Manager) SetSortOption(ctx context.Context, opt profile.SortOption) {
	if !opt.Valid() {
		logging.StateWarn("Unknown sort option %q, using %s", opt, profile.DefaultSort)
		opt = profile.DefaultSort
	}

	m.mu.Lock()
	if m.sortOption == opt {
		m.mu.Unlock()
		return
	}
	m.sortOption = opt
	m.persistLocked(ctx, keySortOption, func(ctx context.Context) { m.store.SaveSortOption(ctx, opt) })
	m.mu.Unlock()
	m.settle()

	logging.StateDebug("Sort option set to %s", opt)
	m.notify()
}

// Select opens the detail view for uuid. Unknown uuids are ignored.
func (m *Manager) Select(uuid string) bool {
	m.mu.Lock()
	found := slices.ContainsFunc(m.profiles, func(p profile.Profile) bool { return p.UUID() == uuid })
	if found {
		m.selectedID = uuid
		m.detailOpen = true
	}
	m.mu.Unlock()

	if found {
		m.notify()
	}
	return found
}

// Deselect closes the detail view and clears the selection.
func (m *Manager) Deselect() {
	m.mu.Lock()
	changed := m.detailOpen || m.selectedID != ""
	m.selectedID = ""
	m.detailOpen = false
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// ClearError drops the last error message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	changed := m.lastError != ""
	m.lastError = ""
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// Lookup returns the profile with the given uuid.
func (m *Manager) Lookup(uuid string) (profile.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UUID() == uuid {
			return p, true
		}
	}
	return profile.Profile{}, false
}

// =============================================================================
// IN-FLIGHT GUARD
// =============================================================================

// begin claims the slot for kind, clears the last error and applies setFlags,
// all under one lock. It returns the epoch the operation started in.
func (m *Manager) begin(kind opKind, setFlags func()) (uint64, error) {
	m.mu.Lock()
	if m.inFlight[kind] {
		m.mu.Unlock()
		logging.StateDebug("%s rejected: already in flight", kind)
		return 0, ErrBusy
	}
	m.inFlight[kind] = true
	m.lastError = ""
	setFlags()
	epoch := m.epoch
	m.mu.Unlock()

	m.notify()
	return epoch, nil
}

func (m *Manager) end(kind opKind) {
	m.mu.Lock()
	delete(m.inFlight, kind)
	m.mu.Unlock()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

const (
	keyProfiles   = "profiles"
	keySearchTerm = "searchTerm"
	keySortOption = "sortOption"
)

// persistLocked queues a store write. Caller holds m.mu, which orders the
// queueing; the write itself runs without it.
func (m *Manager) persistLocked(ctx context.Context, key string, write func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	m.writes.submit(key, func() { write(ctx) }, m.background)
}

func (m *Manager) persistProfilesLocked(ctx context.Context) {
	profiles := slices.Clone(m.profiles)
	m.persistLocked(ctx, keyProfiles, func(ctx context.Context) { m.store.SaveProfiles(ctx, profiles) })
}

// settle waits for queued writes unless they drain in the background.
func (m *Manager) settle() {
	if !m.background {
		m.writes.flush()
	}
}

// Flush blocks until every queued store write has landed. Call it before
// closing the store.
func (m *Manager) Flush() {
	m.writes.flush()
}

// SetMinDurations replaces the indicator floors. Operations already running
// keep the floor they started with.
func (m *Manager) SetMinDurations(generate, button, scroll time.Duration) {
	m.mu.Lock()
	m.generateMin = generate
	m.buttonMin = button
	m.scrollMin = scroll
	m.mu.Unlock()
	logging.StateDebug("Minimum durations set: generate=%s button=%s scroll=%s", generate, button, scroll)
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// OnChange registers fn to run after every state change. fn runs on the
// goroutine that made the change, without the manager lock held.
// The returned function unregisters it.
func (m *Manager) OnChange(fn func()) (unsubscribe func()) {
	m.listenerMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

func (m *Manager) notify() {
	m.listenerMu.Lock()
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

type nopPersister struct{}

func (nopPersister) LoadProfiles(context.Context) []profile.Profile { return []profile.Profile{} }
func (nopPersister) SaveProfiles(context.Context, []profile.Profile) {}
func (nopPersister) LoadSearchTerm(context.Context) string { return "" }
func (nopPersister) SaveSearchTerm(context.Context, string) {}
func (nopPersister) LoadSortOption(context.Context) profile.SortOption { return profile.DefaultSort }
func (nopPersister) SaveSortOption(context.Context, profile.SortOption) {}

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"profilegrid/internal/collection"
	"profilegrid/internal/config"
	"profilegrid/internal/profile"
	"profilegrid/internal/scroll"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedSource serves generated profiles, failing while err is set.
type scriptedSource struct {
	mu    sync.Mutex
	err   error
	n     int
	first []profile.Profile
}

func (s *scriptedSource) Profiles(_ context.Context, count, _ int) ([]profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.first) > 0 {
		out := s.first
		s.first = nil
		return out, nil
	}
	out := make([]profile.Profile, count)
	for i := range out {
		s.n++
		out[i] = person(fmt.Sprintf("gen-%d", s.n), "Gen", fmt.Sprintf("Person%03d", s.n), "Norway")
	}
	return out, nil
}

func (s *scriptedSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func person(uuid, first, last, country string) profile.Profile {
	var p profile.Profile
	p.ID = uuid
	p.Login.UUID = uuid
	p.Name.First = first
	p.Name.Last = last
	p.Location.City = "Springfield"
	p.Location.Country = country
	p.Email = strings.ToLower(first) + "@example.com"
	return p
}

func newTestModel(t *testing.T, src collection.Source) (Model, *collection.Manager) {
	t.Helper()
	mgr := collection.New(src, nil, collection.WithMinDurations(0, 0, 0))
	m := New(context.Background(), Config{
		Manager: mgr,
		Scroll:  scroll.Options{Threshold: scroll.DefaultThreshold, Enabled: true},
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, mgr
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// run executes one command and feeds its result and the state change back in.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	return update(t, m, stateChangedMsg{})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, k)
		m = update(t, m, stateChangedMsg{})
	}
	return m
}

func seeded() *scriptedSource {
	return &scriptedSource{first: []profile.Profile{
		person("u1", "Ada", "Lovelace", "United Kingdom"),
		person("u2", "Grace", "Hopper", "United States"),
		person("u3", "Alan", "Turing", "United Kingdom"),
	}}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	mgr := collection.New(seeded(), nil)
	m := New(context.Background(), Config{Manager: mgr})
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_TooSmall(t *testing.T) {
	m, _ := newTestModel(t, seeded())
	m = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.Contains(t, m.View(), "Terminal too small")
}

func TestModel_InitRendersCards(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	assert.Equal(t, 3, mgr.Snapshot().Total)
	view := m.View()
	assert.Contains(t, view, "Ada Lovelace")
	assert.Contains(t, view, "Grace Hopper")
	assert.Contains(t, view, "3 profiles")
	assert.Contains(t, view, "Sort: "+profile.SortNameAsc.Label())
}

func TestModel_SearchFiltersAsTyped(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	m = press(t, m, runes("/"))
	require.True(t, m.searching)
	m = press(t, m, runes("g"), runes("r"), runes("a"))

	assert.Equal(t, "gra", mgr.Snapshot().SearchTerm)
	view := m.View()
	assert.Contains(t, view, "Grace Hopper")
	assert.NotContains(t, view, "Alan Turing")
	assert.Contains(t, view, "1 of 3 profiles")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)

	// Letters are commands again once the input is blurred.
	m = press(t, m, runes("s"))
	assert.Equal(t, profile.SortNameDesc, mgr.Snapshot().SortOption)
	assert.Equal(t, "gra", mgr.Snapshot().SearchTerm)
}

func TestModel_NoMatches(t *testing.T) {
	m, _ := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))
	m = press(t, m, runes("/"), runes("z"), runes("z"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, m.View(), `No profiles match "zz"`)
}

func TestModel_SortCycles(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	var seen []profile.SortOption
	for range profile.SortOptions() {
		m = press(t, m, runes("s"))
		seen = append(seen, mgr.Snapshot().SortOption)
	}
	assert.Equal(t, []profile.SortOption{
		profile.SortNameDesc, profile.SortCountryAsc, profile.SortCountryDesc, profile.SortNameAsc,
	}, seen)
}

func TestModel_DetailOpenAndClose(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter})
	snap := mgr.Snapshot()
	require.True(t, snap.DetailOpen)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "u3", snap.Selected.UUID(), "second card in name order is Alan")
	assert.Contains(t, m.View(), "Profile Details")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, mgr.Snapshot().DetailOpen)
	assert.NotContains(t, m.View(), "Profile Details")
}

func TestModel_DeleteFromDetail(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("d"))
	snap := mgr.Snapshot()
	assert.False(t, snap.DetailOpen)
	assert.Equal(t, 2, snap.Total)
	_, ok := mgr.Lookup("u1")
	assert.False(t, ok)
	assert.NotContains(t, m.View(), "Ada Lovelace")
}

func TestModel_DeleteAtCursor(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	m = press(t, m, runes("l"), runes("l"), runes("d"))
	_, ok := mgr.Lookup("u2")
	assert.False(t, ok, "third card in name order is Grace")
	assert.Equal(t, 1, m.cursor, "cursor clamps to the shorter list")
}

func TestModel_DeleteAllNeedsConfirmation(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	m = press(t, m, runes("D"))
	assert.Contains(t, m.View(), "Delete all 3 profiles?")
	m = press(t, m, runes("n"))
	assert.Equal(t, 3, mgr.Snapshot().Total)

	m = press(t, m, runes("D"), runes("y"))
	assert.Equal(t, 0, mgr.Snapshot().Total)
	assert.Contains(t, m.View(), "No profiles yet")
}

func TestModel_ErrorAndRetry(t *testing.T) {
	src := seeded()
	src.setErr(errors.New("HTTP error! status: 500"))
	m, mgr := newTestModel(t, src)
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	view := m.View()
	assert.Contains(t, view, "Oops! Something went wrong")
	assert.Contains(t, view, "status: 500")

	src.setErr(nil)
	next, cmd := m.Update(runes("r"))
	m = run(t, next.(Model), cmd)
	assert.Equal(t, 3, mgr.Snapshot().Total)
	assert.Empty(t, mgr.Snapshot().LastError)
	assert.Contains(t, m.View(), "Ada Lovelace")
}

func TestModel_ErrorBannerWithProfiles(t *testing.T) {
	src := seeded()
	m, mgr := newTestModel(t, src)
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	src.setErr(errors.New("boom"))
	next, cmd := m.Update(runes("n"))
	m = run(t, next.(Model), cmd)

	view := m.View()
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "Ada Lovelace", "cards stay visible under the banner")

	m = press(t, m, runes("x"))
	assert.Empty(t, mgr.Snapshot().LastError)
	assert.NotContains(t, m.View(), "boom")
}

func TestModel_GenerateAndLoadMoreKeys(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	next, cmd := m.Update(runes("n"))
	m = run(t, next.(Model), cmd)
	assert.Equal(t, 4, mgr.Snapshot().Total)

	next, cmd = m.Update(runes("m"))
	m = run(t, next.(Model), cmd)
	assert.Equal(t, 7, mgr.Snapshot().Total)
	assert.Equal(t, 2, mgr.Snapshot().PageCursor)
	assert.Contains(t, m.View(), "7 profiles")
}

func TestModel_ScrollNearBottomLoadsMore(t *testing.T) {
	m, mgr := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))
	for range 12 {
		_, err := mgr.LoadMore(context.Background(), collection.TriggerButton)
		require.NoError(t, err)
	}
	m = update(t, m, stateChangedMsg{})
	before := mgr.Snapshot().Total

	// At the top of a long grid nothing fires.
	require.Nil(t, m.publishScroll())

	m.list.GotoBottom()
	cmd := m.publishScroll()
	require.NotNil(t, cmd)
	done, ok := cmd().(opDoneMsg)
	require.True(t, ok)
	assert.Equal(t, collection.TriggerScroll, done.trigger)
	require.NoError(t, done.err)
	assert.Equal(t, before+3, mgr.Snapshot().Total)

	// The trigger stays quiet until it sees the load finish.
	assert.Nil(t, m.publishScroll())
	m = update(t, m, stateChangedMsg{})
	m.list.GotoBottom()
	assert.NotNil(t, m.publishScroll())
}

func TestModel_ConfigReload(t *testing.T) {
	m, _ := newTestModel(t, seeded())
	m = run(t, m, m.runOp(opInit, collection.TriggerButton))

	cfg := config.DefaultConfig()
	cfg.Scroll.Enabled = false
	next, cmd := m.Update(configReloadedMsg{cfg: cfg})
	m = next.(Model)
	assert.Nil(t, cmd, "no channel to keep listening on")
	assert.Contains(t, m.View(), "Configuration reloaded")

	m.list.GotoBottom()
	assert.Nil(t, m.publishScroll(), "scroll loading disabled by reload")
}

func TestScrollOptions(t *testing.T) {
	assert.Equal(t, scroll.DefaultOptions(), ScrollOptions(nil))

	cfg := config.DefaultConfig()
	cfg.Scroll.Threshold = 120
	opts := ScrollOptions(cfg)
	assert.Equal(t, 120, opts.Threshold)
	assert.Equal(t, cfg.GetScrollThrottle(), opts.Throttle)
	assert.Equal(t, cfg.Scroll.Enabled, opts.Enabled)
}

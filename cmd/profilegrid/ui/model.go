package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"profilegrid/internal/collection"
	"profilegrid/internal/config"
	"profilegrid/internal/logging"
	"profilegrid/internal/profile"
	"profilegrid/internal/scroll"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Config wires the model to its collaborators.
type Config struct {
	Manager *collection.Manager
	Scroll  scroll.Options
	Styles  *Styles

	// ConfigUpdates delivers reloaded configuration. Optional.
	ConfigUpdates <-chan *config.Config
}

// Operation names carried by opDoneMsg.
const (
	opInit     = "init"
	opRetry    = "retry"
	opGenerate = "generate"
	opLoadMore = "loadMore"
)

type stateChangedMsg struct{}

type opDoneMsg struct {
	op      string
	trigger collection.Trigger
	err     error
}

type configReloadedMsg struct {
	cfg *config.Config
}

// pendingLoad records that the scroll trigger fired during Publish.
type pendingLoad struct {
	mu  sync.Mutex
	set bool
}

func (p *pendingLoad) mark() {
	p.mu.Lock()
	p.set = true
	p.mu.Unlock()
}

func (p *pendingLoad) take() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.set
	p.set = false
	return set
}

// Model is the bubbletea model for the profile grid.
type Model struct {
	ctx         context.Context
	mgr         *collection.Manager
	trigger     *scroll.Trigger
	observer    *ViewportObserver
	pending     *pendingLoad
	changes     chan struct{}
	unsubscribe func()
	configs     <-chan *config.Config

	styles   Styles
	layout   LayoutConfig
	list     viewport.Model
	detail   viewport.Model
	search   textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	snap       collection.Snapshot
	detailFor  string
	cursor     int
	searching  bool
	confirmAll bool
	spinning   bool
	ready      bool
	notice     string
}

// New creates the model. The manager is not initialised until Init runs.
func New(ctx context.Context, cfg Config) Model {
	styles := DefaultStyles()
	if cfg.Styles != nil {
		styles = *cfg.Styles
	}

	changes := make(chan struct{}, 1)
	unsubscribe := cfg.Manager.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	observer := NewViewportObserver()
	pending := &pendingLoad{}
	trigger := scroll.New(observer, pending.mark, cfg.Scroll)
	trigger.Attach()

	snap := cfg.Manager.Snapshot()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search by name or country"
	search.CharLimit = 100
	search.PromptStyle = styles.SearchPrompt
	search.SetValue(snap.SearchTerm)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		ctx:         ctx,
		mgr:         cfg.Manager,
		trigger:     trigger,
		observer:    observer,
		pending:     pending,
		changes:     changes,
		unsubscribe: unsubscribe,
		configs:     cfg.ConfigUpdates,
		styles:      styles,
		list:        viewport.New(80, 20),
		detail:      viewport.New(60, 20),
		search:      search,
		spinner:     sp,
		snap:        snap,
	}
}

// Init starts the manager and the listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.runOp(opInit, collection.TriggerButton),
		listenChanges(m.changes),
		listenConfig(m.configs),
		textinput.Blink,
	)
}

func listenChanges(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func listenConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}

// runOp returns a command that runs one manager operation off the UI loop.
func (m Model) runOp(op string, trigger collection.Trigger) tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		var err error
		switch op {
		case opInit:
			err = mgr.Init(ctx)
		case opRetry:
			err = mgr.Retry(ctx)
		case opGenerate:
			_, err = mgr.GenerateOne(ctx)
		case opLoadMore:
			_, err = mgr.LoadMore(ctx, trigger)
		}
		return opDoneMsg{op: op, trigger: trigger, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateChangedMsg:
		cmd := m.refresh()
		return m, tea.Batch(cmd, listenChanges(m.changes))

	case opDoneMsg:
		return m.handleOpDone(msg), nil

	case configReloadedMsg:
		opts := ScrollOptions(msg.cfg)
		m.trigger.SetOptions(opts)
		m.notice = "Configuration reloaded"
		logging.UI("Applied reloaded config (scroll enabled=%v threshold=%d)", opts.Enabled, opts.Threshold)
		return m, listenConfig(m.configs)

	case spinner.TickMsg:
		if !m.snap.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		if m.snap.DetailOpen {
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		m.list, cmd = m.list.Update(msg)
		return m, tea.Batch(cmd, m.publishScroll())
	}

	var cmd tea.Cmd
	if m.searching {
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m Model) handleOpDone(msg opDoneMsg) Model {
	if msg.err == nil {
		return m
	}
	if errors.Is(msg.err, collection.ErrBusy) {
		if msg.op == opLoadMore && msg.trigger == collection.TriggerScroll {
			m.trigger.Reset()
		}
		return m
	}
	logging.UIDebug("%s finished with error: %v", msg.op, msg.err)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}
	m.notice = ""

	if m.searching {
		switch key {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.mgr.SetSearchTerm(m.ctx, m.search.Value())
		return m, cmd
	}

	if m.confirmAll {
		m.confirmAll = false
		if key == "y" || key == "Y" {
			m.mgr.DeleteAll(m.ctx)
			m.cursor = 0
		}
		return m, nil
	}

	if m.snap.DetailOpen {
		switch key {
		case "esc", "q":
			m.mgr.Deselect()
			return m, nil
		case "d":
			if sel := m.snap.Selected; sel != nil {
				m.mgr.Delete(m.ctx, sel.UUID())
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	cols := m.layout.Columns()
	switch key {
	case "q":
		return m.quit()
	case "/":
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case "s":
		m.mgr.SetSortOption(m.ctx, m.snap.SortOption.Next())
	case "n":
		if !m.snap.LoadingNewProfile {
			return m, m.runOp(opGenerate, collection.TriggerButton)
		}
	case "m":
		if !m.snap.AppendLoading() {
			return m, m.runOp(opLoadMore, collection.TriggerButton)
		}
	case "d":
		if p, ok := m.current(); ok {
			m.mgr.Delete(m.ctx, p.UUID())
		}
	case "D":
		if m.snap.HasUsers {
			m.confirmAll = true
		}
	case "enter":
		if p, ok := m.current(); ok {
			m.mgr.Select(p.UUID())
		}
	case "r":
		if m.snap.LastError != "" && !m.snap.HasUsers && !m.snap.Loading {
			return m, m.runOp(opRetry, collection.TriggerButton)
		}
	case "x":
		m.mgr.ClearError()
	case "left", "h":
		cmd := m.moveCursor(-1)
		return m, cmd
	case "right", "l":
		cmd := m.moveCursor(1)
		return m, cmd
	case "up", "k":
		cmd := m.moveCursor(-cols)
		return m, cmd
	case "down", "j":
		cmd := m.moveCursor(cols)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, tea.Batch(cmd, m.publishScroll())
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.trigger.Detach()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	logging.UI("Quit requested")
	return m, tea.Quit
}

// current returns the profile under the cursor.
func (m Model) current() (profile.Profile, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Profiles) {
		return profile.Profile{}, false
	}
	return m.snap.Profiles[m.cursor], true
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	n := len(m.snap.Profiles)
	if n == 0 {
		return nil
	}
	m.cursor = max(0, min(n-1, m.cursor+delta))
	m.list.SetContent(m.renderList())

	row := m.cursor / m.layout.Columns()
	top := row * CardHeight
	bottom := top + CardHeight
	switch {
	case top < m.list.YOffset:
		m.list.SetYOffset(top)
	case bottom > m.list.YOffset+m.list.Height:
		m.list.SetYOffset(bottom - m.list.Height)
	}
	return m.publishScroll()
}

// publishScroll reports the list position to the scroll trigger and returns
// a load-more command if it fired.
func (m *Model) publishScroll() tea.Cmd {
	if m.snap.DetailOpen {
		return nil
	}
	m.observer.Publish(m.list)
	if m.pending.take() {
		logging.UIDebug("Scroll trigger fired at offset %d", m.list.YOffset)
		// Mark loading now so the next refresh that sees it finished re-arms.
		m.trigger.SetLoading(true)
		return m.runOp(opLoadMore, collection.TriggerScroll)
	}
	return nil
}

// refresh pulls a new snapshot and re-renders everything derived from it.
func (m *Model) refresh() tea.Cmd {
	m.snap = m.mgr.Snapshot()
	m.trigger.SetHasItems(m.snap.HasUsers)
	m.trigger.SetLoading(m.snap.AppendLoading())

	if m.cursor >= len(m.snap.Profiles) {
		m.cursor = max(0, len(m.snap.Profiles)-1)
	}
	if !m.searching && m.search.Value() != m.snap.SearchTerm {
		m.search.SetValue(m.snap.SearchTerm)
	}

	m.applyLayout()
	m.list.SetContent(m.renderList())

	switch sel := m.snap.Selected; {
	case m.snap.DetailOpen && sel != nil && sel.UUID() != m.detailFor:
		m.detailFor = sel.UUID()
		m.detail.SetContent(RenderMarkdown(m.renderer, ProfileMarkdown(*sel)))
		m.detail.GotoTop()
	case !m.snap.DetailOpen:
		m.detailFor = ""
	}

	if m.snap.Busy() && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) resize(w, h int) {
	m.layout = NewLayoutConfig(w, h)
	m.ready = true
	m.search.Width = max(10, w-6)

	renderer, err := NewRenderer(m.layout.DetailWidth() - 4)
	if err != nil {
		logging.UIDebug("markdown renderer unavailable: %v", err)
	}
	m.renderer = renderer
	m.detailFor = ""

	m.refresh()
}

// applyLayout sizes the viewports for the current terminal and banner state.
func (m *Model) applyLayout() {
	if !m.ready {
		return
	}
	withBanner := m.snap.LastError != "" && m.snap.HasUsers
	m.list.Width = m.layout.TerminalWidth
	m.list.Height = m.layout.ListHeight(withBanner)
	m.detail.Width = m.layout.DetailWidth() - 4
	m.detail.Height = max(3, m.layout.ListHeight(false)-2)
}

func (m Model) renderList() string {
	return RenderGrid(m.snap.Profiles, m.styles, m.layout.Columns(), m.cursor)
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.layout.TooSmall() {
		return m.styles.Warning.Render(fmt.Sprintf("Terminal too small (need %dx%d)", MinimumTerminalWidth, MinimumTerminalHeight))
	}

	sections := []string{m.renderHeader(), m.search.View()}
	if m.snap.LastError != "" && m.snap.HasUsers {
		sections = append(sections, m.styles.ErrorBanner.Render(truncate(m.snap.LastError+"  (x to dismiss)", m.layout.TerminalWidth-2)))
	}
	sections = append(sections, m.renderBody(), m.renderStatus(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := "Profile Grid"
	count := fmt.Sprintf("%d profiles", m.snap.UserCount)
	if strings.TrimSpace(m.snap.SearchTerm) != "" {
		count = fmt.Sprintf("%d of %d profiles", m.snap.UserCount, m.snap.Total)
	}
	text := fmt.Sprintf("%s  ·  %s  ·  Sort: %s", title, count, m.snap.SortOption.Label())
	return m.styles.Header.Width(m.layout.TerminalWidth).Render(truncate(text, m.layout.TerminalWidth-4))
}

func (m Model) renderBody() string {
	height := m.list.Height
	place := func(s string) string {
		return lipgloss.Place(m.layout.TerminalWidth, height, lipgloss.Center, lipgloss.Center, s)
	}

	switch {
	case m.snap.DetailOpen && m.snap.Selected != nil:
		title := m.styles.Title.Render("Profile Details") + m.styles.Muted.Render("  esc: close  d: delete")
		box := m.styles.Overlay.Width(m.layout.DetailWidth()).Render(title + "\n" + m.detail.View())
		return place(box)
	case m.snap.LastError != "" && !m.snap.HasUsers:
		msg := lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Error.Render("Oops! Something went wrong"),
			"",
			m.styles.Body.Render(m.snap.LastError),
			"",
			m.styles.Key.Render("r")+m.styles.Muted.Render(" try again"),
		)
		return place(msg)
	case m.snap.Loading && !m.snap.HasUsers:
		return place(m.spinner.View() + " Loading profiles...")
	case !m.snap.HasUsers:
		return place(m.styles.Muted.Render("No profiles yet. Press n to generate one."))
	case m.snap.UserCount == 0:
		return place(m.styles.Muted.Render(fmt.Sprintf("No profiles match %q.", m.snap.SearchTerm)))
	}
	return m.list.View()
}

func (m Model) renderStatus() string {
	var parts []string
	if m.snap.LoadingMore || m.snap.LoadingMoreButton {
		parts = append(parts, m.spinner.View()+" Loading more profiles...")
	}
	if m.snap.LoadingNewProfile {
		parts = append(parts, m.spinner.View()+" Generating profile...")
	}
	if len(parts) == 0 && m.notice != "" {
		parts = append(parts, m.styles.Info.Render(m.notice))
	}
	return m.styles.Footer.Render(strings.Join(parts, "   "))
}

func (m Model) renderFooter() string {
	if m.confirmAll {
		return m.styles.Warning.Render(fmt.Sprintf("  Delete all %d profiles? (y/N)", m.snap.Total))
	}
	if m.searching {
		return m.styles.Footer.Render("enter/esc: done")
	}
	keys := []string{"/ search", "s sort", "n new", "m more", "enter details", "d delete", "D delete all", "q quit"}
	return m.styles.Footer.Render(truncate(strings.Join(keys, " · "), m.layout.TerminalWidth-4))
}

// ScrollOptions extracts scroll trigger options from configuration.
func ScrollOptions(cfg *config.Config) scroll.Options {
	if cfg == nil {
		return scroll.DefaultOptions()
	}
	return scroll.Options{
		Threshold: cfg.Scroll.Threshold,
		Throttle:  cfg.GetScrollThrottle(),
		Enabled:   cfg.Scroll.Enabled,
	}
}

// Run starts the program and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-vlist/config"
	"github.com/miosa/osa-vlist/msg"
	"github.com/miosa/osa-vlist/source"
	"github.com/miosa/osa-vlist/style"
	"github.com/miosa/osa-vlist/sysmon"
	"github.com/miosa/osa-vlist/ui/common"
	"github.com/miosa/osa-vlist/ui/header"
	"github.com/miosa/osa-vlist/ui/list"
	"github.com/miosa/osa-vlist/ui/status"
	"github.com/miosa/osa-vlist/ui/toast"
	"github.com/miosa/osa-vlist/virtual"
)

// ProfileDir is set by main to the user's profile directory path. Settings
// changed from the keyboard are persisted there; empty disables saving.
var ProfileDir string

const (
	loadTimeout   = 30 * time.Second
	sampleTimeout = 2 * time.Second
	tickInterval  = time.Second
)

// -- Options ------------------------------------------------------------------

// Option configures New.
type Option func(*Model)

// WithVersion sets the version shown in the header.
func WithVersion(v string) Option {
	return func(m *Model) { m.version = v }
}

// WithLogger routes app and engine logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLoader replaces the loader derived from the config.
func WithLoader(origin string, l source.Loader) Option {
	return func(m *Model) {
		m.loader = l
		m.origin = origin
	}
}

// WithSampler enables process stats in the status bar.
func WithSampler(s *sysmon.Sampler) Option {
	return func(m *Model) { m.sampler = s }
}

// -- Model --------------------------------------------------------------------

// Model is the root Bubble Tea model. It owns the list, the chrome around
// it and the wiring between the data source and the UI.
type Model struct {
	header header.Model
	list   list.FilterableList
	status status.Model
	toasts toast.Model
	filter textinput.Model

	state  State
	layout Layout
	keys   KeyMap

	cfg     config.Config
	version string
	loader  source.Loader
	origin  string
	gen     *source.Generator
	sampler *sysmon.Sampler
	logger  *slog.Logger
	err     error

	width  int
	height int
}

// New constructs the root Model from cfg. It applies the configured theme
// and fails when cfg does not validate.
func New(cfg config.Config, opts ...Option) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}

	m := Model{
		cfg:     cfg,
		version: "dev",
		logger:  slog.New(slog.DiscardHandler),
		gen:     source.NewGenerator(cfg.Seed + 1),
		keys:    DefaultKeyMap(),
		state:   StateLoading,
		status:  status.New(),
		toasts:  toast.New(),
		width:   80,
		height:  24,
	}
	switch cfg.Source {
	case config.SourceGit:
		m.loader = source.GitLoader(cfg.Repo, cfg.Limit)
		m.origin = cfg.Repo
		if abs, err := filepath.Abs(cfg.Repo); err == nil {
			m.origin = abs
		}
	default:
		m.loader = source.SyntheticLoader(cfg.Count, cfg.Seed)
		m.origin = fmt.Sprintf("seed %d", cfg.Seed)
	}
	for _, opt := range opts {
		opt(&m)
	}

	if cfg.Theme != "" && !style.SetTheme(cfg.Theme) {
		m.toasts.Add(fmt.Sprintf("Unknown theme %q", cfg.Theme), toast.Warning)
	}

	engine := append(cfg.EngineOptions(), virtual.WithLogger(m.logger))
	fl, err := list.NewFilterableList(
		list.WithGap(cfg.Gap),
		list.WithFollow(cfg.Follow),
		list.WithEngine(engine...),
	)
	if err != nil {
		return Model{}, err
	}
	m.list = fl

	ti := textinput.New()
	ti.Placeholder = "filter titles..."
	ti.Prompt = "/ "
	s := ti.Styles()
	s.Focused.Prompt = style.FilterPrompt
	ti.SetStyles(s)
	m.filter = ti

	m.header = header.New(m.version)
	m.header.SetSource(cfg.Source, m.origin)
	m.header.SetLoading(true)
	m.status.SetFollow(cfg.Follow)
	m.relayout()
	return m, nil
}

// State returns the current application state.
func (m Model) State() State { return m.state }

// Err returns the load error shown in StateError.
func (m Model) Err() error { return m.err }

// List returns the underlying list.
func (m *Model) List() *list.Model { return m.list.List() }

// -- Init ---------------------------------------------------------------------

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.tickCmd(), m.sampleCmd(), tea.RequestWindowSize)
}

// -- Update -------------------------------------------------------------------

func (m Model) Update(rawMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := rawMsg.(type) {

	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.relayout()
		return m, nil

	case tea.MouseWheelMsg:
		if m.state != StateReady && m.state != StateFilter {
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(v)
		m.refresh()
		return m, cmd

	case tea.MouseClickMsg:
		if m.state != StateReady && m.state != StateFilter {
			return m, nil
		}
		y := v.Y - m.layout.HeaderHeight
		if y < 0 || y >= m.layout.ListHeight || v.X >= m.layout.ListWidth {
			return m, nil
		}
		v.Y = y
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(v)
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKey(v)

	// -- Data source --

	case msg.EntriesLoaded:
		return m.handleLoaded(v)

	case source.Selected:
		m.toasts.Add(common.Truncate(v.Entry.Title, 48), toast.Info)
		m.relayout()
		return m, nil

	// -- Tick --

	case msg.TickMsg:
		n := m.toasts.Len()
		m.toasts.Tick()
		if m.toasts.Len() != n {
			m.relayout()
		}
		return m, tea.Batch(m.tickCmd(), m.sampleCmd())

	case msg.ProcSampled:
		if v.Err != nil {
			m.logger.Debug("proc sample failed", "err", v.Err)
			return m, nil
		}
		m.status.SetProc(v.Stats)
		return m, nil
	}

	// Cursor blink and other textinput internals.
	if m.state == StateFilter {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(rawMsg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleLoaded(v msg.EntriesLoaded) (tea.Model, tea.Cmd) {
	m.header.SetLoading(false)
	if v.Err != nil {
		m.logger.Error("load failed", "source", v.Source, "err", v.Err)
		m.err = v.Err
		m.state = StateError
		return m, nil
	}

	contents := source.NewContents(v.Entries)
	items := make([]list.Item, len(contents))
	for i, c := range contents {
		items[i] = c
	}
	m.list.SetItems(items)
	m.gen.Seek(len(v.Entries))
	if m.List().Follow() {
		m.List().ScrollToBottom()
	}

	m.logger.Info("entries loaded", "source", v.Source, "count", len(v.Entries), "elapsed", v.Elapsed)
	m.status.SetLoadTime(v.Elapsed)
	m.state = StateReady
	m.refresh()
	return m, nil
}

// -- Commands -----------------------------------------------------------------

func (m Model) loadCmd() tea.Cmd {
	load, name := m.loader, m.cfg.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		start := time.Now()
		entries, err := load(ctx)
		return msg.EntriesLoaded{Source: name, Entries: entries, Elapsed: time.Since(start), Err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return msg.TickMsg{} })
}

func (m Model) sampleCmd() tea.Cmd {
	if m.sampler == nil {
		return nil
	}
	s := m.sampler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sampleTimeout)
		defer cancel()
		st, err := s.Sample(ctx)
		return msg.ProcSampled{Stats: st, Err: err}
	}
}

// -- Key handling -------------------------------------------------------------

func (m Model) handleKey(k tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateFilter:
		return m.handleFilterKey(k)
	case StateReady:
		return m.handleReadyKey(k)
	}
	if key.Matches(k, m.keys.Quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleReadyKey(k tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	l := m.List()
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(k, m.keys.Escape):
		if m.list.Filter() != "" {
			m.filter.SetValue("")
			m.list.SetFilter("")
			m.relayout()
		}

	case key.Matches(k, m.keys.ScrollDown):
		l.ScrollDown(1)
	case key.Matches(k, m.keys.ScrollUp):
		l.ScrollUp(1)
	case key.Matches(k, m.keys.PageDown):
		l.PageDown()
	case key.Matches(k, m.keys.PageUp):
		l.PageUp()
	case key.Matches(k, m.keys.HalfPageDown):
		l.HalfPageDown()
	case key.Matches(k, m.keys.HalfPageUp):
		l.HalfPageUp()
	case key.Matches(k, m.keys.ScrollTop):
		l.ScrollToTop()
	case key.Matches(k, m.keys.ScrollBottom):
		l.ScrollToBottom()

	case key.Matches(k, m.keys.Append):
		m.appendEntry()
	case key.Matches(k, m.keys.Remove):
		m.removeSelected()
	case key.Matches(k, m.keys.Edit):
		m.editSelected()

	case key.Matches(k, m.keys.Theme):
		m.cycleTheme()
	case key.Matches(k, m.keys.Follow):
		m.toggleFollow()

	case key.Matches(k, m.keys.Filter):
		m.state = StateFilter
		m.filter.SetValue(m.list.Filter())
		m.relayout()
		cmd := m.filter.Focus()
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m Model) handleFilterKey(k tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, key.NewBinding(key.WithKeys("ctrl+c"))):
		return m, tea.Quit

	case key.Matches(k, m.keys.Escape):
		m.filter.Blur()
		m.filter.SetValue("")
		m.list.SetFilter("")
		m.state = StateReady
		m.relayout()
		return m, nil

	case key.Matches(k, m.keys.Submit):
		m.filter.Blur()
		m.state = StateReady
		m.relayout()
		return m, nil
	}

	prev := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(k)
	if v := m.filter.Value(); v != prev {
		m.list.SetFilter(v)
		m.refresh()
	}
	return m, cmd
}

// -- Actions ------------------------------------------------------------------

func (m *Model) appendEntry() {
	e := m.gen.Next()
	m.list.AppendItem(source.NewContent(e, m.list.Len()+1))
	m.logger.Debug("append", "id", e.ID)
}

func (m *Model) selected() *source.Content {
	c, _ := m.list.SelectedItem().(*source.Content)
	return c
}

func (m *Model) removeSelected() {
	c := m.selected()
	if c == nil {
		return
	}
	if m.list.RemoveItem(c.ID()) {
		m.toasts.Add("Removed "+common.Truncate(c.Entry().Title, 40), toast.Info)
		m.relayout()
	}
}

func (m *Model) editSelected() {
	c := m.selected()
	if c == nil {
		return
	}
	c.SetEntry(m.gen.Rewrite(c.Entry()))
	m.list.UpdateItem(c.ID(), c)
}

func (m *Model) cycleTheme() {
	name := style.NextTheme()
	style.SetTheme(name)
	m.cfg.Theme = name
	m.List().InvalidateCache()
	m.toasts.Add("Theme set to: "+name, toast.Info)
	m.saveConfig()
	m.relayout()
}

func (m *Model) toggleFollow() {
	l := m.List()
	f := !l.Follow()
	l.SetFollow(f)
	if f {
		l.ScrollToBottom()
	}
	m.cfg.Follow = f
	m.status.SetFollow(f)
	m.saveConfig()
}

func (m *Model) saveConfig() {
	if ProfileDir == "" {
		return
	}
	if err := config.Save(ProfileDir, m.cfg); err != nil {
		m.logger.Warn("config save failed", "err", err)
		m.toasts.Add("Could not persist settings", toast.Warning)
	}
}

// -- Layout -------------------------------------------------------------------

// relayout recomputes the layout and pushes sizes into the sub-models.
func (m *Model) relayout() {
	filterOpen := m.state == StateFilter || m.list.Filter() != ""
	m.layout = ComputeLayout(m.width, m.height, filterOpen, m.toasts.Len())
	m.list.SetSize(m.layout.ListWidth, m.layout.ListHeight)
	m.filter.SetWidth(max(1, m.width-4))
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.refresh()
}

// refresh copies list geometry into the header and status bar.
func (m *Model) refresh() {
	shown := -1
	if m.list.Filter() != "" {
		shown = m.List().Len()
	}
	m.header.SetCount(m.list.Len(), shown)
	if m.state == StateReady || m.state == StateFilter {
		m.status.SetStats(m.List().Stats())
	}
}

// -- View ---------------------------------------------------------------------

// View returns the tea.View for the current frame.
// AltScreen and MouseMode are set on every frame.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// renderView composes the full terminal frame as a string.
func (m Model) renderView() string {
	sections := []string{m.header.HeaderView(), m.renderMain()}

	if m.layout.FilterHeight > 0 {
		sections = append(sections, m.filter.View())
	}
	if m.toasts.Len() > 0 {
		sections = append(sections, m.toasts.View(m.width))
	}
	sections = append(sections, m.status.View())
	sections = append(sections, common.Truncate(common.KeyHelp(m.keys.ShortHelp()...), m.width))
	return strings.Join(sections, "\n")
}

// renderMain returns exactly ListHeight lines: the list with its scrollbar,
// or a placeholder while loading or after a failed load.
func (m Model) renderMain() string {
	h, w := m.layout.ListHeight, m.layout.ListWidth

	var body string
	switch m.state {
	case StateLoading:
		body = style.Faint.Render(fmt.Sprintf("Loading %s…", m.cfg.Source))
	case StateError:
		body = style.ErrorText.Render("Failed to load entries") + "\n" +
			style.Hint.Render(common.Truncate(m.err.Error(), w)) + "\n\n" +
			style.Hint.Render("press q to quit")
	default:
		l := m.List()
		if l.Len() == 0 {
			body = style.Faint.Render("No entries")
		} else {
			body = l.View()
		}
	}

	lines := strings.Split(body, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for i := range lines {
		lines[i] = common.PadRight(lines[i], w)
	}
	for len(lines) < h {
		lines = append(lines, strings.Repeat(" ", w))
	}
	main := strings.Join(lines, "\n")

	if m.state == StateReady || m.state == StateFilter {
		l := m.List()
		if bar := common.Scrollbar(h, l.TotalHeight(), l.ScrollTop()); bar != "" {
			return lipgloss.JoinHorizontal(lipgloss.Top, main, bar)
		}
	}
	return main
}

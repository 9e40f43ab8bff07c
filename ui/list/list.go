// Package list provides a virtualized, offset-based scrollable list widget
// for osa-vlist. Item geometry lives in a virtual.Controller: items start at
// an estimated height, are rendered and measured only while they sit inside
// the render window, and their measured heights correct the offsets of
// everything below them.
//
// Key properties:
//   - Per-item content cache, invalidated on width or content-version
//     changes. A cache miss invalidates the item's measurement as well.
//   - Absolute line offsets: the scroll position is a line offset into the
//     concatenated content, resolved to items by the controller's index.
//   - Only items inside the viewport plus overscan are rendered on each
//     View() call. Everything else is never drawn.
//   - Gap lines between items are counted into each item's measured height.
//   - Follow mode keeps the last item pinned to the bottom of the viewport as
//     items are appended.
package list

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-vlist/virtual"
)

// maxSettlePasses bounds the render/measure loop run before every View.
// Each pass measures every unmeasured slot of the window, so the loop only
// repeats while corrections keep moving the visible range.
const maxSettlePasses = 8

// ---------------------------------------------------------------------------
// Public interfaces
// ---------------------------------------------------------------------------

// Item is anything the list can render.
type Item interface {
	// ID returns a unique, stable identifier used for cache keying and
	// targeted cache invalidation.
	ID() string

	// ContentVersion returns a monotonically increasing integer. When this
	// value changes the cached render and the measured height are discarded.
	ContentVersion() int

	// Render returns the rendered string for the given width.
	// The result must be stable for the same (width, ContentVersion) pair.
	Render(width int) string
}

// MouseClickable items can handle click events.
type MouseClickable interface {
	HandleClick(x, y int) tea.Cmd
}

// MatchSettable items support match highlighting.
type MatchSettable interface {
	SetMatches(positions []int)
}

// Filterable items provide the text a filter is matched against. Items that
// don't implement it are matched on their ID.
type Filterable interface {
	FilterValue() string
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option is a functional option for New.
type Option func(*Model)

// WithWidth sets the initial viewport width.
func WithWidth(w int) Option {
	return func(m *Model) { m.width = w }
}

// WithHeight sets the initial viewport height (number of terminal lines
// visible at once).
func WithHeight(h int) Option {
	return func(m *Model) { m.height = h }
}

// WithFollow keeps the viewport pinned to the bottom while items are
// appended, as long as it was already showing the bottom.
func WithFollow(f bool) Option {
	return func(m *Model) { m.follow = f }
}

// WithGap sets the number of blank lines inserted after each item.
func WithGap(g int) Option {
	return func(m *Model) {
		if g >= 0 {
			m.gap = g
		}
	}
}

// WithEngine passes options through to the underlying virtual.Controller
// (estimated height, overscan, scroll threshold, anchoring, logger).
func WithEngine(opts ...virtual.Option) Option {
	return func(m *Model) { m.engine = append(m.engine, opts...) }
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

type cachedRender struct {
	content string
	height  int
	width   int
	version int
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model is a virtualized scrollable list.
// The zero value is not usable; construct with New.
//
// Model has value semantics for bubbletea, but copies share the same
// controller and render cache.
type Model struct {
	ctrl   *virtual.Controller[Item]
	engine []virtual.Option

	width  int
	height int

	// gap is the number of blank lines after each item.
	gap int

	// follow pins the viewport to the bottom on append.
	follow bool
	// pinned re-applies ScrollToBottom while measurements converge.
	pinned bool

	// cache stores rendered output keyed by item ID.
	cache map[string]cachedRender
}

// New constructs a Model with the supplied options. Invalid engine options
// are reported as errors wrapping virtual.ErrInvalidConfiguration.
func New(opts ...Option) (Model, error) {
	m := Model{
		cache: make(map[string]cachedRender),
	}
	for _, o := range opts {
		o(&m)
	}
	ctrl, err := virtual.New[Item](nil, m.engine...)
	if err != nil {
		return Model{}, err
	}
	m.ctrl = ctrl
	m.ctrl.Resize(max(0, m.height))
	return m, nil
}

// Stats is a snapshot of the list's geometry for status lines.
type Stats struct {
	Items       int
	Mounted     int
	Pending     int
	Visible     virtual.Range
	Rendered    virtual.Range
	ScrollTop   int
	TotalHeight int
	State       virtual.State
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// SetSize updates the viewport dimensions. A width change discards the cache
// and every measurement because every item must be re-rendered.
func (m *Model) SetSize(w, h int) {
	if w != m.width {
		m.cache = make(map[string]cachedRender)
		m.ctrl.InvalidateAll()
	}
	m.width = w
	m.height = h
	m.ctrl.Resize(max(0, h))
}

// SetGap updates the number of blank lines after each item.
func (m *Model) SetGap(n int) {
	if n >= 0 && n != m.gap {
		m.gap = n
		m.ctrl.InvalidateAll()
	}
}

// SetFollow toggles follow mode.
func (m *Model) SetFollow(f bool) {
	m.follow = f
	if !f {
		m.pinned = false
	}
}

// Follow reports whether follow mode is on.
func (m Model) Follow() bool { return m.follow }

// SetItems replaces the item slice wholesale. Items whose ID and version are
// unchanged keep both their cached render and their measured height.
func (m *Model) SetItems(items []Item) {
	m.ctrl.SetItems(wrap(items))
	for i, it := range items {
		if cr, ok := m.cache[it.ID()]; ok && cr.version != it.ContentVersion() {
			delete(m.cache, it.ID())
			m.ctrl.Invalidate(i)
		}
	}
}

// AppendItem adds a single item to the end of the list.
func (m *Model) AppendItem(item Item) {
	if !m.follow {
		m.pinned = false
	}
	m.ctrl.Append(wrapOne(item))
}

// PrependItems inserts items at the beginning of the list (for loading
// history). The controller anchors the scroll offset so the currently
// visible content stays where it is.
func (m *Model) PrependItems(items []Item) {
	if len(items) == 0 {
		return
	}
	m.ctrl.Insert(0, wrap(items)...)
}

// InsertItem inserts item before position at (clamped to the list).
func (m *Model) InsertItem(at int, item Item) {
	m.ctrl.Insert(at, wrapOne(item))
}

// RemoveItem deletes the item with the given id. It reports whether an item
// was removed.
func (m *Model) RemoveItem(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	delete(m.cache, id)
	return m.ctrl.Remove(i)
}

// UpdateItem replaces the item with the given id in-place and invalidates
// its cache entry and measurement. If the id is not found, the call is a
// no-op.
func (m *Model) UpdateItem(id string, item Item) {
	i := m.indexOf(id)
	if i < 0 {
		return
	}
	delete(m.cache, id)
	m.ctrl.Update(i, wrapOne(item))
}

// Len returns the number of items.
func (m Model) Len() int { return m.ctrl.Len() }

// ItemAt returns the item at position i, or nil.
func (m Model) ItemAt(i int) Item {
	it, ok := m.ctrl.Item(i)
	if !ok {
		return nil
	}
	return it.Data
}

// Items returns all items in order.
func (m Model) Items() []Item {
	out := make([]Item, m.ctrl.Len())
	for i := range out {
		it, _ := m.ctrl.Item(i)
		out[i] = it.Data
	}
	return out
}

func (m Model) indexOf(id string) int {
	for i := 0; i < m.ctrl.Len(); i++ {
		if it, _ := m.ctrl.Item(i); it.ID == id {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Scroll
// ---------------------------------------------------------------------------

// ScrollToBottom positions the viewport so the last item is fully visible
// and keeps it there while the heights of the final items are measured.
func (m *Model) ScrollToBottom() {
	m.pinned = true
	m.settle()
}

// ScrollToTop positions the viewport at the very first item.
func (m *Model) ScrollToTop() {
	m.pinned = false
	m.ctrl.Scroll(0)
	m.settle()
}

// ScrollTo moves the viewport to an absolute line offset.
func (m *Model) ScrollTo(offset int) {
	m.pinned = false
	m.ctrl.Scroll(offset)
	m.settle()
}

// ScrollDown scrolls the content down by lines lines (viewport moves down,
// content scrolls up).
func (m *Model) ScrollDown(lines int) {
	if lines <= 0 || m.ctrl.Len() == 0 {
		return
	}
	m.ctrl.ScrollBy(lines)
	m.settle()
	m.pinned = m.follow && m.AtBottom()
}

// ScrollUp scrolls the content up by lines lines (viewport moves up, earlier
// content reappears at the top).
func (m *Model) ScrollUp(lines int) {
	if lines <= 0 || m.ctrl.Len() == 0 {
		return
	}
	m.pinned = false
	m.ctrl.ScrollBy(-lines)
	m.settle()
}

// PageDown scrolls down by one full viewport height.
func (m *Model) PageDown() { m.ScrollDown(m.height) }

// PageUp scrolls up by one full viewport height.
func (m *Model) PageUp() { m.ScrollUp(m.height) }

// HalfPageDown scrolls down by half the viewport height.
func (m *Model) HalfPageDown() { m.ScrollDown(m.height / 2) }

// HalfPageUp scrolls up by half the viewport height.
func (m *Model) HalfPageUp() { m.ScrollUp(m.height / 2) }

// ScrollTop returns the current line offset of the viewport.
func (m Model) ScrollTop() int { return m.ctrl.ScrollTop() }

// TotalHeight returns the current sum of measured and estimated heights.
func (m Model) TotalHeight() int { return m.ctrl.TotalHeight() }

// AtBottom reports whether the viewport is currently showing the bottom of
// the list (i.e., auto-scroll would be a no-op).
func (m Model) AtBottom() bool {
	if m.ctrl.Len() == 0 {
		return true
	}
	m.settle()
	return m.ctrl.ScrollTop() >= m.ctrl.MaxScroll()
}

// ---------------------------------------------------------------------------
// Position helpers
// ---------------------------------------------------------------------------

// ItemIndexAtPosition resolves a y coordinate (relative to the top of the
// viewport) to the index of the item rendered at that line. Returns -1 if
// the coordinate is out of range or falls on a gap line.
func (m Model) ItemIndexAtPosition(y int) int {
	if y < 0 || y >= m.height || m.ctrl.Len() == 0 {
		return -1
	}
	m.settle()
	offset := m.ctrl.ScrollTop() + y
	if offset >= m.ctrl.TotalHeight() {
		return -1
	}
	idx, ok := m.ctrl.IndexAtOffset(offset)
	if !ok {
		return -1
	}
	if _, end := m.ctrl.OffsetOf(idx); m.gap > 0 && offset >= end-m.gap {
		return -1
	}
	return idx
}

// VisibleItemIndices returns the indices of items currently in the viewport.
func (m Model) VisibleItemIndices() []int {
	if m.height <= 0 || m.ctrl.Len() == 0 {
		return nil
	}
	w := m.settle()
	result := make([]int, 0, w.Visible.Len())
	for i := w.Visible.First; i <= w.Visible.Last; i++ {
		result = append(result, i)
	}
	return result
}

// Stats returns the current window geometry.
func (m Model) Stats() Stats {
	w := m.settle()
	return Stats{
		Items:       m.ctrl.Len(),
		Mounted:     len(w.Items),
		Pending:     len(m.ctrl.Pending()),
		Visible:     w.Visible,
		Rendered:    w.Rendered,
		ScrollTop:   w.ScrollTop,
		TotalHeight: w.TotalHeight,
		State:       m.ctrl.State(),
	}
}

// ---------------------------------------------------------------------------
// Cache management
// ---------------------------------------------------------------------------

// InvalidateCache forces all cached renders and measurements to be
// discarded.
func (m *Model) InvalidateCache() {
	m.cache = make(map[string]cachedRender)
	m.ctrl.InvalidateAll()
}

// InvalidateItem discards the cached render and measurement for the item
// with the given id.
func (m *Model) InvalidateItem(id string) {
	delete(m.cache, id)
	if i := m.indexOf(id); i >= 0 {
		m.ctrl.Invalidate(i)
	}
}

// ---------------------------------------------------------------------------
// Update (bubbletea)
// ---------------------------------------------------------------------------

// Update handles mouse wheel events for scrolling. Callers forward whichever
// tea.Msg events they want the list to respond to.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.ScrollUp(3)
		case tea.MouseWheelDown:
			m.ScrollDown(3)
		}
	case tea.MouseClickMsg:
		// Forward click events to MouseClickable items.
		idx := m.ItemIndexAtPosition(msg.Y)
		if mc, ok := m.ItemAt(idx).(MouseClickable); ok {
			return m, mc.HandleClick(msg.X, msg.Y)
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders only the items inside the current render window and returns
// the lines that fall within the viewport.
func (m Model) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}
	if m.ctrl.Len() == 0 {
		return ""
	}

	w := m.settle()
	top, bottom := w.ScrollTop, w.ScrollTop+m.height
	lines := make([]string, 0, m.height)
	for _, s := range w.Items {
		if s.EndPos() <= top || s.StartPos >= bottom {
			continue
		}
		itemLines := m.slotLines(s)
		from := max(0, top-s.StartPos)
		to := min(s.Height, bottom-s.StartPos)
		lines = append(lines, itemLines[from:to]...)
	}
	return strings.Join(lines, "\n")
}

// slotLines returns exactly s.Height lines for a slot: the rendered content
// followed by gap lines, padded or cut when the slot still carries an
// estimate.
func (m Model) slotLines(s virtual.Slot[Item]) []string {
	out := splitLines(m.renderItem(s.Data))
	for range m.gap {
		out = append(out, "")
	}
	if len(out) > s.Height {
		return out[:s.Height]
	}
	for len(out) < s.Height {
		out = append(out, "")
	}
	return out
}

// ---------------------------------------------------------------------------
// settle: render/measure loop
// ---------------------------------------------------------------------------

// settle pulls the render window and reports the drawn height of every slot
// that is still on its estimate, repeating while the corrections move the
// range. It returns the final window.
func (m *Model) settle() virtual.Window[Item] {
	for range maxSettlePasses {
		if m.pinned {
			m.ctrl.Scroll(m.ctrl.MaxScroll())
		}
		w := m.ctrl.RenderWindow()
		if m.width > 0 {
			for _, s := range w.Items {
				if !s.Measured {
					m.ctrl.Measure(s.ArrPos, m.measure(s.Data))
				}
			}
		}
		settled := m.ctrl.State() != virtual.StateDirty
		if m.pinned && m.ctrl.ScrollTop() != m.ctrl.MaxScroll() {
			settled = false
		}
		if settled {
			break
		}
	}
	if m.pinned {
		m.ctrl.Scroll(m.ctrl.MaxScroll())
	}
	return m.ctrl.RenderWindow()
}

// measure returns an item's height in lines at the current width, gap
// included.
func (m Model) measure(item Item) int {
	return m.rendered(item).height + m.gap
}

// ---------------------------------------------------------------------------
// Render helpers
// ---------------------------------------------------------------------------

// renderItem returns the cached or freshly rendered content for an item.
func (m Model) renderItem(item Item) string {
	return m.rendered(item).content
}

// rendered returns the cache entry for item, rendering it on a miss.
func (m Model) rendered(item Item) cachedRender {
	if m.width <= 0 {
		return cachedRender{height: 1}
	}
	id := item.ID()
	ver := item.ContentVersion()
	if cr, ok := m.cache[id]; ok {
		if cr.width == m.width && cr.version == ver {
			return cr
		}
	}
	content := item.Render(m.width)
	cr := cachedRender{
		content: content,
		height:  lipgloss.Height(content),
		width:   m.width,
		version: ver,
	}
	m.cache[id] = cr
	return cr
}

func wrapOne(item Item) virtual.Item[Item] {
	return virtual.Item[Item]{ID: item.ID(), Data: item}
}

func wrap(items []Item) []virtual.Item[Item] {
	out := make([]virtual.Item[Item], len(items))
	for i, it := range items {
		out[i] = wrapOne(it)
	}
	return out
}

// ---------------------------------------------------------------------------
// String helpers
// ---------------------------------------------------------------------------

// splitLines splits a rendered string into individual lines.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// Package virtual positions a vertically scrolling list of items whose heights
// are only known once they have been drawn.
//
// The pieces, leaf first:
//   - HeightCache: measured or estimated height per item.
//   - PositionIndex: cumulative offsets with a validity watermark and
//     O(log n) offset lookup.
//   - Viewport: scroll offset, viewport height, overscan.
//   - Controller: reacts to scroll, resize, mutation and measurement events
//     and emits the window of items to mount with their absolute offsets.
//
// A Controller is owned by a single list and driven from one goroutine (the
// bubbletea Update/View loop); it is not safe for concurrent use.
package virtual

import (
	"fmt"
	"log/slog"
	"slices"
)

// Item is an entry of the ordered collection. Data is never inspected.
type Item[T any] struct {
	ID   string
	Data T
}

// Slot is one mounted item: where to place it and how tall it currently is.
type Slot[T any] struct {
	ArrPos   int
	ID       string
	StartPos int
	Height   int
	Measured bool
	Data     T
}

// EndPos returns the offset just below the slot.
func (s Slot[T]) EndPos() int { return s.StartPos + s.Height }

// Window is what the rendering layer mounts.
type Window[T any] struct {
	Items       []Slot[T]
	TotalHeight int
	ScrollTop   int

	// Visible is the strictly visible range; Rendered adds overscan.
	Visible  Range
	Rendered Range
}

// Controller is the Render Window Controller. It owns the Height Cache and
// Position Index for one list.
type Controller[T any] struct {
	opts Options
	log  *slog.Logger

	items   []Item[T]
	heights *HeightCache
	index   *PositionIndex
	view    Viewport

	state  State
	window Window[T]

	// emittedTop is ScrollTop when the current window was computed.
	emittedTop int

	// pending holds positions of mounted items still awaiting measurement.
	pending map[int]struct{}
}

// New seeds a controller from items. Configuration errors wrap
// ErrInvalidConfiguration.
func New[T any](items []Item[T], opts ...Option) (*Controller[T], error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	heights := NewHeightCache(len(items), o.EstimatedHeight)
	c := &Controller[T]{
		opts:    o,
		log:     logger,
		items:   slices.Clone(items),
		heights: heights,
		index:   NewPositionIndex(heights),
		view:    Viewport{Overscan: o.Overscan},
		state:   StateDirty,
		window:  Window[T]{Visible: emptyRange, Rendered: emptyRange},
		pending: make(map[int]struct{}),
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

// State returns the current recompute state.
func (c *Controller[T]) State() State { return c.state }

func (c *Controller[T]) moveTo(next State) {
	if !c.state.CanTransition(next) {
		panic(fmt.Sprintf("virtual: illegal state transition %s -> %s", c.state, next))
	}
	if c.state != next {
		c.log.Debug("window state", "from", c.state, "to", next)
	}
	c.state = next
}

// markDirty supersedes any outstanding measurement requests.
func (c *Controller[T]) markDirty() {
	c.moveTo(StateDirty)
	clear(c.pending)
}

// Pending returns the positions of mounted items still awaiting measurement,
// in ascending order.
func (c *Controller[T]) Pending() []int {
	out := make([]int, 0, len(c.pending))
	for p := range c.pending {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ---------------------------------------------------------------------------
// Viewport events
// ---------------------------------------------------------------------------

// SetViewport handles a combined scroll/resize event. A resize always owes a
// recompute; a scroll only does once it has moved ScrollThreshold lines away
// from the last emitted window.
func (c *Controller[T]) SetViewport(scrollTop, height int) {
	if height < 0 {
		height = 0
	}
	resized := height != c.view.Height
	c.view.Height = height
	c.view.ScrollTop = c.clampTop(scrollTop)

	if resized || abs(c.view.ScrollTop-c.emittedTop) >= c.opts.ScrollThreshold {
		c.markDirty()
		return
	}
	c.window.ScrollTop = c.view.ScrollTop
}

// Scroll moves the viewport to scrollTop.
func (c *Controller[T]) Scroll(scrollTop int) { c.SetViewport(scrollTop, c.view.Height) }

// ScrollBy moves the viewport by delta lines.
func (c *Controller[T]) ScrollBy(delta int) { c.Scroll(c.view.ScrollTop + delta) }

// Resize changes the viewport height.
func (c *Controller[T]) Resize(height int) { c.SetViewport(c.view.ScrollTop, height) }

// ScrollTop returns the current (clamped) scroll offset.
func (c *Controller[T]) ScrollTop() int { return c.view.ScrollTop }

// ViewportHeight returns the current viewport height.
func (c *Controller[T]) ViewportHeight() int { return c.view.Height }

// MaxScroll returns the largest scroll offset that still fills the viewport.
func (c *Controller[T]) MaxScroll() int { return c.view.MaxScroll(c.index.TotalHeight()) }

func (c *Controller[T]) clampTop(top int) int {
	return clamp(top, 0, c.MaxScroll())
}

// ---------------------------------------------------------------------------
// Window
// ---------------------------------------------------------------------------

// RenderWindow returns the items to mount and where to place them. It
// recomputes only when an event has made the previous window stale, so two
// calls with no intervening event return identical windows.
func (c *Controller[T]) RenderWindow() Window[T] {
	if c.state == StateDirty {
		c.recompute()
	}
	w := c.window
	w.Items = slices.Clone(c.window.Items)
	return w
}

func (c *Controller[T]) recompute() {
	c.view.ScrollTop = c.clampTop(c.view.ScrollTop)
	visible := c.view.Visible(c.index)
	rendered := c.view.Expand(visible, len(c.items))

	clear(c.pending)
	slots := make([]Slot[T], 0, rendered.Len())
	for i := rendered.First; i <= rendered.Last; i++ {
		s := c.slot(i)
		if !s.Measured {
			c.pending[i] = struct{}{}
		}
		slots = append(slots, s)
	}

	c.window = Window[T]{
		Items:       slots,
		TotalHeight: c.index.TotalHeight(),
		ScrollTop:   c.view.ScrollTop,
		Visible:     visible,
		Rendered:    rendered,
	}
	c.emittedTop = c.view.ScrollTop

	if len(c.pending) > 0 {
		c.moveTo(StateMeasuring)
	} else {
		c.moveTo(StateIdle)
	}
}

func (c *Controller[T]) slot(i int) Slot[T] {
	start, end := c.index.OffsetOf(i)
	return Slot[T]{
		ArrPos:   i,
		ID:       c.items[i].ID,
		StartPos: start,
		Height:   end - start,
		Measured: c.heights.Measured(i),
		Data:     c.items[i].Data,
	}
}

// refreshWindow rebuilds the slots of the current range in place. Used when a
// height change moved offsets but not the range itself.
func (c *Controller[T]) refreshWindow() {
	r := c.window.Rendered
	for i := r.First; i <= r.Last && i < len(c.items); i++ {
		c.window.Items[i-r.First] = c.slot(i)
	}
	c.window.ScrollTop = c.view.ScrollTop
}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

// Measure records the drawn height of the item at arrPos.
//
// Measurements for positions that no longer exist are discarded. A height
// change inside the window forces a recompute only if it moves the rendered
// range; otherwise the window's offsets are corrected in place. Changes
// below the window update the cache and nothing else. Changes above the
// scroll offset shift it by the same delta when anchoring is on. With
// anchoring off, a change above the window moves the content under a fixed
// scroll offset and owes a recompute once it moves the rendered range.
func (c *Controller[T]) Measure(arrPos, height int) {
	if arrPos < 0 || arrPos >= len(c.items) {
		c.log.Debug("discarding measurement", "arrPos", arrPos, "len", len(c.items), "err", ErrStaleMeasurement)
		return
	}
	if height < 1 {
		height = 1
	}

	prev := c.heights.Get(arrPos)
	above := c.aboveViewport(arrPos)
	changed, err := c.heights.SetMeasured(arrPos, height)
	if err != nil {
		c.log.Debug("discarding measurement", "arrPos", arrPos, "err", err)
		return
	}
	delete(c.pending, arrPos)

	if c.state == StateDirty {
		// A recompute is already owed; it will pick the new height up.
		if changed && above {
			c.view.ScrollTop += height - prev
		}
		return
	}

	r := c.window.Rendered
	inWindow := r.Contains(arrPos)
	if changed {
		delta := height - prev
		c.window.TotalHeight += delta
		switch {
		case above:
			// Offsets below arrPos and the scroll offset move together, so
			// the range cannot change.
			c.view.ScrollTop += delta
			c.emittedTop += delta
			c.refreshWindow()
		case inWindow || (!r.Empty() && arrPos < r.First):
			// Shrinking near the bottom can pull MaxScroll under the offset.
			c.view.ScrollTop = c.clampTop(c.view.ScrollTop)
			if c.rangeMoved() {
				c.markDirty()
				return
			}
			c.refreshWindow()
		}
	} else if inWindow {
		c.window.Items[arrPos-c.window.Rendered.First].Measured = true
	}

	if c.state == StateMeasuring && len(c.pending) == 0 {
		c.moveTo(StateIdle)
	}
}

// aboveViewport reports whether the item at arrPos ends at or above the
// current scroll offset and anchoring applies to it.
func (c *Controller[T]) aboveViewport(arrPos int) bool {
	if !c.opts.Anchor || c.view.ScrollTop <= 0 {
		return false
	}
	_, end := c.index.OffsetOf(arrPos)
	return end <= c.view.ScrollTop
}

func (c *Controller[T]) rangeMoved() bool {
	return c.view.Render(c.index) != c.window.Rendered
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// Insert adds items before position at (clamped to [0, Len]). Items at and
// after at shift down.
func (c *Controller[T]) Insert(at int, items ...Item[T]) {
	if len(items) == 0 {
		return
	}
	at = clamp(at, 0, len(c.items))
	shift := 0
	if c.opts.Anchor && c.view.ScrollTop > 0 && at < len(c.items) {
		if start, _ := c.index.OffsetOf(at); start <= c.view.ScrollTop {
			shift = len(items) * c.heights.Estimate()
		}
	}
	c.items = slices.Insert(c.items, at, items...)
	c.heights.Insert(at, len(items))
	c.view.ScrollTop += shift
	c.markDirty()
}

// Append adds items to the end of the collection.
func (c *Controller[T]) Append(items ...Item[T]) { c.Insert(len(c.items), items...) }

// Remove deletes the item at arrPos and discards its geometry. Items after it
// shift up by one. It returns false if arrPos is out of range.
func (c *Controller[T]) Remove(arrPos int) bool {
	if arrPos < 0 || arrPos >= len(c.items) {
		c.log.Debug("remove out of range", "arrPos", arrPos, "len", len(c.items), "err", ErrOutOfBounds)
		return false
	}
	shift := 0
	if c.aboveViewport(arrPos) {
		shift = -c.heights.Get(arrPos)
	}
	c.items = slices.Delete(c.items, arrPos, arrPos+1)
	c.heights.Remove(arrPos)
	c.view.ScrollTop += shift
	c.markDirty()
	return true
}

// Update replaces the item at arrPos and drops its measurement, since new
// content may draw at a different height.
func (c *Controller[T]) Update(arrPos int, item Item[T]) bool {
	if arrPos < 0 || arrPos >= len(c.items) {
		c.log.Debug("update out of range", "arrPos", arrPos, "len", len(c.items), "err", ErrOutOfBounds)
		return false
	}
	c.items[arrPos] = item
	c.Invalidate(arrPos)
	return true
}

// Invalidate drops the measurement of the item at arrPos back to the
// estimate and owes a recompute.
func (c *Controller[T]) Invalidate(arrPos int) {
	if arrPos < 0 || arrPos >= len(c.items) {
		return
	}
	if c.aboveViewport(arrPos) {
		c.view.ScrollTop += c.heights.Estimate() - c.heights.Get(arrPos)
	}
	c.heights.Invalidate(arrPos)
	c.markDirty()
}

// InvalidateAll drops every measurement, e.g. after a width change.
func (c *Controller[T]) InvalidateAll() {
	c.heights.InvalidateAll()
	c.markDirty()
}

// SetItems replaces the collection. Measurements are carried over for items
// whose ID is still present.
func (c *Controller[T]) SetItems(items []Item[T]) {
	known := make(map[string]int, len(c.items))
	for i, it := range c.items {
		if c.heights.Measured(i) {
			known[it.ID] = c.heights.Get(i)
		}
	}
	c.items = slices.Clone(items)
	c.heights.Reset(len(items))
	for i, it := range c.items {
		if h, ok := known[it.ID]; ok {
			_, _ = c.heights.SetMeasured(i, h)
		}
	}
	c.markDirty()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Len returns the number of items.
func (c *Controller[T]) Len() int { return len(c.items) }

// Item returns the item at arrPos.
func (c *Controller[T]) Item(arrPos int) (Item[T], bool) {
	if arrPos < 0 || arrPos >= len(c.items) {
		var zero Item[T]
		return zero, false
	}
	return c.items[arrPos], true
}

// Height returns the effective height of the item at arrPos.
func (c *Controller[T]) Height(arrPos int) int { return c.heights.Get(arrPos) }

// Measured reports whether the item at arrPos has been measured.
func (c *Controller[T]) Measured(arrPos int) bool { return c.heights.Measured(arrPos) }

// TotalHeight returns the current sum of effective heights.
func (c *Controller[T]) TotalHeight() int { return c.index.TotalHeight() }

// OffsetOf returns the start and end offsets of the item at arrPos, clamped
// to the collection.
func (c *Controller[T]) OffsetOf(arrPos int) (start, end int) { return c.index.OffsetOf(arrPos) }

// IndexAtOffset returns the item covering offset; ok is false for an empty
// collection.
func (c *Controller[T]) IndexAtOffset(offset int) (int, bool) { return c.index.IndexAtOffset(offset) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package virtual

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) []Item[int] {
	out := make([]Item[int], n)
	for i := range out {
		out[i] = Item[int]{ID: strconv.Itoa(i), Data: i}
	}
	return out
}

func newController(t *testing.T, n int, opts ...Option) *Controller[int] {
	t.Helper()
	c, err := New(makeItems(n), opts...)
	require.NoError(t, err)
	return c
}

func slotAt(t *testing.T, w Window[int], arrPos int) Slot[int] {
	t.Helper()
	for _, s := range w.Items {
		if s.ArrPos == arrPos {
			return s
		}
	}
	t.Fatalf("arrPos %d not in window %d..%d", arrPos, w.Rendered.First, w.Rendered.Last)
	return Slot[int]{}
}

// measureAll reports every pending item at the given height.
func measureAll(c *Controller[int], height int) {
	for _, p := range c.Pending() {
		c.Measure(p, height)
	}
}

func requireContiguousWindow(t *testing.T, w Window[int]) {
	t.Helper()
	for i := 1; i < len(w.Items); i++ {
		require.Equal(t, w.Items[i-1].EndPos(), w.Items[i].StartPos, "slot %d", w.Items[i].ArrPos)
		require.Equal(t, w.Items[i-1].ArrPos+1, w.Items[i].ArrPos)
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	cases := map[string][]Option{
		"zero estimate":      {WithEstimatedHeight(0)},
		"negative estimate":  {WithEstimatedHeight(-10)},
		"zero overscan":      {WithOverscan(0)},
		"negative overscan":  {WithOverscan(-1)},
		"zero threshold":     {WithScrollThreshold(0)},
		"negative threshold": {WithScrollThreshold(-4)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := New(makeItems(3), opts...)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Nil(t, c)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := newController(t, 10)
	assert.Equal(t, DefaultEstimatedHeight, c.Height(0))
	assert.Equal(t, StateDirty, c.State())
	assert.Equal(t, 10*DefaultEstimatedHeight, c.TotalHeight())
}

func TestNew_CopiesItems(t *testing.T) {
	items := makeItems(3)
	c, err := New(items)
	require.NoError(t, err)
	items[0].ID = "mutated"
	it, ok := c.Item(0)
	require.True(t, ok)
	assert.Equal(t, "0", it.ID)
}

// ---------------------------------------------------------------------------
// Window computation
// ---------------------------------------------------------------------------

func TestRenderWindow_UniformScenario(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)

	w := c.RenderWindow()
	assert.Equal(t, Range{First: 0, Last: 9}, w.Visible)
	assert.Equal(t, Range{First: 0, Last: 11}, w.Rendered)
	assert.Equal(t, 50000, w.TotalHeight)
	require.Len(t, w.Items, 12)
	assert.Equal(t, 150, w.Items[3].StartPos)
	assert.Equal(t, 50, w.Items[3].Height)
	assert.Equal(t, "3", w.Items[3].ID)
	assert.Equal(t, 3, w.Items[3].Data)
	requireContiguousWindow(t, w)

	assert.Equal(t, StateMeasuring, c.State())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, c.Pending())
}

func TestRenderWindow_Empty(t *testing.T) {
	c := newController(t, 0)
	c.SetViewport(0, 500)
	w := c.RenderWindow()
	assert.Empty(t, w.Items)
	assert.Equal(t, 0, w.TotalHeight)
	assert.True(t, w.Visible.Empty())
	assert.Equal(t, StateIdle, c.State())

	idx, ok := c.IndexAtOffset(0)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestRenderWindow_Idempotent(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(1234, 500)

	first := c.RenderWindow()
	second := c.RenderWindow()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("RenderWindow changed without an event (-first +second):\n%s", diff)
	}

	measureAll(c, 50)
	require.Equal(t, StateIdle, c.State())
	third := c.RenderWindow()
	fourth := c.RenderWindow()
	if diff := cmp.Diff(third, fourth); diff != "" {
		t.Errorf("RenderWindow changed while idle (-third +fourth):\n%s", diff)
	}
}

func TestRenderWindow_ReturnsCopy(t *testing.T) {
	c := newController(t, 100, WithEstimatedHeight(10))
	c.SetViewport(0, 50)
	w := c.RenderWindow()
	w.Items[0].StartPos = 999
	assert.Equal(t, 0, c.RenderWindow().Items[0].StartPos)
}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

func TestMeasure_ChangingVisibleRangeForcesRecompute(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)
	before := c.RenderWindow()
	require.True(t, before.Visible.Contains(5))

	c.Measure(5, 120)
	assert.Equal(t, StateDirty, c.State())

	after := c.RenderWindow()
	assert.Equal(t, before.TotalHeight+70, after.TotalHeight)
	assert.Equal(t, Range{First: 0, Last: 8}, after.Visible)
	for arrPos := 6; arrPos <= after.Rendered.Last; arrPos++ {
		assert.Equal(t, slotAt(t, before, arrPos).StartPos+70, slotAt(t, after, arrPos).StartPos, "arrPos %d", arrPos)
	}
	assert.Equal(t, 120, slotAt(t, after, 5).Height)
	assert.True(t, slotAt(t, after, 5).Measured)
	requireContiguousWindow(t, after)
}

func TestMeasure_SmallCorrectionIsAbsorbed(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)
	c.RenderWindow()

	// Item 10 is below the viewport bottom; growing it moves no boundary.
	c.Measure(10, 55)
	assert.Equal(t, StateMeasuring, c.State())

	w := c.RenderWindow()
	assert.Equal(t, Range{First: 0, Last: 11}, w.Rendered)
	assert.Equal(t, 55, slotAt(t, w, 10).Height)
	assert.Equal(t, 555, slotAt(t, w, 11).StartPos)
	assert.Equal(t, 50005, w.TotalHeight)
	assert.Equal(t, c.TotalHeight(), w.TotalHeight)
	requireContiguousWindow(t, w)
}

func TestMeasure_AbsorbedBurstStaysInsideWindow(t *testing.T) {
	const n = 200000
	c := newController(t, n, WithEstimatedHeight(3), WithOverscan(5))
	c.SetViewport(0, 40)
	w := c.RenderWindow()
	require.Equal(t, Range{First: 0, Last: 13}, w.Visible)
	require.Equal(t, Range{First: 0, Last: 18}, w.Rendered)

	for i := w.Visible.First; i <= w.Visible.Last; i++ {
		c.Measure(i, 3)
	}
	// The overscan items below the viewport grow without moving the range.
	for i := w.Visible.Last + 1; i <= w.Rendered.Last; i++ {
		c.Measure(i, 4)
		require.NotEqual(t, StateDirty, c.State(), "item %d", i)
		require.LessOrEqual(t, c.index.Watermark(), w.Rendered.Last+1,
			"offsets recomputed past the window after item %d", i)
	}
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 3*n+5, c.TotalHeight())
	assert.Equal(t, 3*n+5, c.RenderWindow().TotalHeight)
	assert.Equal(t, w.Rendered.Last+1, c.index.Watermark())
}

func TestMeasure_ConvergesToIdle(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)
	c.RenderWindow()

	pending := c.Pending()
	for i, p := range pending {
		assert.Equal(t, StateMeasuring, c.State(), "still measuring before item %d", p)
		c.Measure(p, 50)
		if i < len(pending)-1 {
			assert.NotContains(t, c.Pending(), p)
		}
	}
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Pending())
	for _, s := range c.RenderWindow().Items {
		assert.True(t, s.Measured, "arrPos %d", s.ArrPos)
	}
}

func TestMeasure_OffWindowDoesNotRecompute(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)
	before := c.RenderWindow()

	c.Measure(500, 80)
	assert.Equal(t, StateMeasuring, c.State())
	assert.Equal(t, 80, c.Height(500), "cache still updated")

	after := c.RenderWindow()
	if diff := cmp.Diff(before.Items, after.Items); diff != "" {
		t.Errorf("window items changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, before.TotalHeight+30, after.TotalHeight)

	measureAll(c, 50)
	require.Equal(t, StateIdle, c.State())
	c.Measure(700, 10)
	assert.Equal(t, StateIdle, c.State())
}

func TestMeasure_StaleIsDiscarded(t *testing.T) {
	c := newController(t, 10, WithEstimatedHeight(50))
	c.SetViewport(0, 100)
	w := c.RenderWindow()

	c.Measure(10, 80)
	c.Measure(-1, 80)
	c.Measure(500, 80)
	assert.Equal(t, StateMeasuring, c.State())
	assert.Equal(t, w.TotalHeight, c.TotalHeight())
}

func TestMeasure_SupersededByScroll(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2))
	c.SetViewport(0, 500)
	c.RenderWindow()
	require.NotEmpty(t, c.Pending())

	c.Scroll(20000)
	assert.Equal(t, StateDirty, c.State())
	assert.Empty(t, c.Pending(), "old requests are superseded")

	w := c.RenderWindow()
	assert.Equal(t, 400, w.Visible.First)

	// A late answer for an item of the old window changes nothing visible.
	c.Measure(3, 200)
	assert.Equal(t, StateMeasuring, c.State())
	assert.Equal(t, 200, c.Height(3))
}

// ---------------------------------------------------------------------------
// Scroll and resize
// ---------------------------------------------------------------------------

func TestScroll_Threshold(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50), WithOverscan(2), WithScrollThreshold(10))
	c.SetViewport(0, 500)
	c.RenderWindow()
	measureAll(c, 50)
	require.Equal(t, StateIdle, c.State())

	c.Scroll(5)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 5, c.RenderWindow().ScrollTop)

	c.Scroll(12)
	assert.Equal(t, StateDirty, c.State())
	assert.Equal(t, 12, c.RenderWindow().ScrollTop)
}

func TestScroll_Clamps(t *testing.T) {
	c := newController(t, 1000, WithEstimatedHeight(50))
	c.SetViewport(0, 500)

	c.Scroll(1_000_000)
	assert.Equal(t, 49500, c.ScrollTop())
	assert.Equal(t, c.MaxScroll(), c.ScrollTop())

	c.ScrollBy(-100)
	assert.Equal(t, 49400, c.ScrollTop())

	c.Scroll(-5)
	assert.Equal(t, 0, c.ScrollTop())
}

func TestResize_ForcesRecompute(t *testing.T) {
	c := newController(t, 100, WithEstimatedHeight(10), WithOverscan(1))
	c.SetViewport(0, 50)
	c.RenderWindow()
	measureAll(c, 10)
	require.Equal(t, StateIdle, c.State())

	c.Resize(100)
	assert.Equal(t, StateDirty, c.State())
	w := c.RenderWindow()
	assert.Equal(t, Range{First: 0, Last: 9}, w.Visible)
	assert.Equal(t, 100, c.ViewportHeight())
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestRemove_ShiftsPositions(t *testing.T) {
	c := newController(t, 10, WithEstimatedHeight(50))
	c.SetViewport(0, 200)
	c.RenderWindow()
	c.Measure(3, 120)

	require.True(t, c.Remove(3))
	assert.Equal(t, 9, c.Len())
	assert.Equal(t, StateDirty, c.State())
	for arrPos := 3; arrPos < 9; arrPos++ {
		it, ok := c.Item(arrPos)
		require.True(t, ok)
		assert.Equal(t, strconv.Itoa(arrPos+1), it.ID)
	}
	assert.Equal(t, 9*50, c.TotalHeight(), "removed geometry is discarded")

	assert.False(t, c.Remove(9))
	assert.False(t, c.Remove(-1))
}

func TestInsert_ShiftsPositions(t *testing.T) {
	c := newController(t, 5, WithEstimatedHeight(10))
	c.Insert(2, Item[int]{ID: "x"}, Item[int]{ID: "y"})
	require.Equal(t, 7, c.Len())

	ids := make([]string, c.Len())
	for i := range ids {
		it, _ := c.Item(i)
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"0", "1", "x", "y", "2", "3", "4"}, ids)

	c.Insert(100, Item[int]{ID: "tail"})
	it, _ := c.Item(7)
	assert.Equal(t, "tail", it.ID)

	c.Append(Item[int]{ID: "end"})
	it, _ = c.Item(8)
	assert.Equal(t, "end", it.ID)
	assert.Equal(t, 90, c.TotalHeight())
}

func TestUpdate_DropsMeasurement(t *testing.T) {
	c := newController(t, 10, WithEstimatedHeight(50))
	c.SetViewport(0, 500)
	c.RenderWindow()
	c.Measure(4, 120)
	require.True(t, c.Measured(4))

	require.True(t, c.Update(4, Item[int]{ID: "new", Data: 42}))
	assert.False(t, c.Measured(4))
	assert.Equal(t, 50, c.Height(4))
	assert.Equal(t, StateDirty, c.State())

	w := c.RenderWindow()
	s := slotAt(t, w, 4)
	assert.Equal(t, "new", s.ID)
	assert.Equal(t, 42, s.Data)

	assert.False(t, c.Update(10, Item[int]{ID: "nope"}))
}

func TestInvalidateAll(t *testing.T) {
	c := newController(t, 20, WithEstimatedHeight(5))
	c.SetViewport(0, 20)
	c.RenderWindow()
	measureAll(c, 9)

	c.InvalidateAll()
	assert.Equal(t, StateDirty, c.State())
	assert.Equal(t, 100, c.TotalHeight())
	for i := 0; i < c.Len(); i++ {
		assert.False(t, c.Measured(i))
	}
}

func TestSetItems_KeepsMeasurementsByID(t *testing.T) {
	c := newController(t, 5, WithEstimatedHeight(10))
	c.SetViewport(0, 100)
	c.RenderWindow()
	c.Measure(1, 30)
	c.Measure(3, 40)

	c.SetItems([]Item[int]{{ID: "3"}, {ID: "new"}, {ID: "1"}})
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 40, c.Height(0))
	assert.False(t, c.Measured(1))
	assert.Equal(t, 30, c.Height(2))
	assert.Equal(t, 80, c.TotalHeight())
}

// ---------------------------------------------------------------------------
// Scroll anchoring
// ---------------------------------------------------------------------------

func anchoredController(t *testing.T, opts ...Option) *Controller[int] {
	t.Helper()
	opts = append([]Option{WithEstimatedHeight(10), WithOverscan(1)}, opts...)
	c := newController(t, 100, opts...)
	c.SetViewport(500, 100)
	w := c.RenderWindow()
	require.Equal(t, Range{First: 50, Last: 59}, w.Visible)
	require.Equal(t, Range{First: 49, Last: 60}, w.Rendered)
	return c
}

func TestAnchoring_MeasurementAboveKeepsContentInPlace(t *testing.T) {
	c := anchoredController(t)
	before := c.RenderWindow()

	c.Measure(10, 30)
	assert.Equal(t, StateMeasuring, c.State(), "no recompute for an off-window item")
	assert.Equal(t, 520, c.ScrollTop())

	after := c.RenderWindow()
	assert.Equal(t, before.Rendered, after.Rendered)
	for i := range after.Items {
		wantRel := before.Items[i].StartPos - before.ScrollTop
		gotRel := after.Items[i].StartPos - after.ScrollTop
		assert.Equal(t, wantRel, gotRel, "arrPos %d moved on screen", after.Items[i].ArrPos)
	}
	requireContiguousWindow(t, after)
}

func TestAnchoring_OverscanItemAbove(t *testing.T) {
	c := anchoredController(t)

	// Item 49 is mounted (overscan) but sits above the viewport.
	c.Measure(49, 25)
	assert.Equal(t, StateMeasuring, c.State())
	assert.Equal(t, 515, c.ScrollTop())
	w := c.RenderWindow()
	assert.Equal(t, 515, slotAt(t, w, 50).StartPos)
}

func TestAnchoring_Disabled(t *testing.T) {
	c := anchoredController(t, WithScrollAnchoring(false))

	c.Measure(10, 30)
	assert.Equal(t, 500, c.ScrollTop())
	assert.Equal(t, StateDirty, c.State(), "content above moved the visible range")

	w := c.RenderWindow()
	assert.Equal(t, 48, w.Visible.First)
}

func TestAnchoring_InsertAndRemoveAbove(t *testing.T) {
	c := anchoredController(t)

	c.Insert(0, Item[int]{ID: "a"}, Item[int]{ID: "b"})
	assert.Equal(t, 520, c.ScrollTop())
	w := c.RenderWindow()
	assert.Equal(t, "50", slotAt(t, w, w.Visible.First).ID)

	require.True(t, c.Remove(0))
	assert.Equal(t, 510, c.ScrollTop())

	// Below the viewport: no shift.
	c.Insert(90, Item[int]{ID: "c"})
	assert.Equal(t, 510, c.ScrollTop())
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestState_Transitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateIdle, StateDirty},
		{StateDirty, StateMeasuring},
		{StateDirty, StateIdle},
		{StateMeasuring, StateDirty},
		{StateMeasuring, StateIdle},
		{StateDirty, StateDirty},
	}
	for _, tr := range legal {
		assert.True(t, tr.from.CanTransition(tr.to), "%s -> %s", tr.from, tr.to)
	}
	assert.False(t, StateIdle.CanTransition(StateMeasuring))
	assert.Equal(t, "measuring", StateMeasuring.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestState_IllegalTransitionPanics(t *testing.T) {
	c := newController(t, 3)
	c.state = StateIdle
	assert.Panics(t, func() { c.moveTo(StateMeasuring) })
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestController_OffsetsStayContiguous(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	c := newController(t, 400, WithEstimatedHeight(4), WithOverscan(3))
	c.SetViewport(0, 40)
	next := 400

	for round := 0; round < 500; round++ {
		switch op := rng.IntN(12); {
		case op < 5:
			w := c.RenderWindow()
			for _, s := range w.Items {
				if !s.Measured {
					c.Measure(s.ArrPos, 1+rng.IntN(10))
				}
			}
		case op < 6:
			c.Measure(rng.IntN(c.Len()+5), 1+rng.IntN(10))
		case op < 7:
			c.Insert(rng.IntN(c.Len()+1), Item[int]{ID: strconv.Itoa(next)})
			next++
		case op < 8 && c.Len() > 1:
			c.Remove(rng.IntN(c.Len()))
		case op < 9:
			c.Update(rng.IntN(c.Len()), Item[int]{ID: strconv.Itoa(next)})
			next++
		case op < 10:
			c.Resize(10 + rng.IntN(60))
		default:
			c.ScrollBy(rng.IntN(200) - 100)
		}

		w := c.RenderWindow()
		requireContiguousWindow(t, w)
		require.Equal(t, c.TotalHeight(), w.TotalHeight, "round %d", round)
		require.LessOrEqual(t, w.ScrollTop, c.MaxScroll())
		require.GreaterOrEqual(t, w.ScrollTop, 0)
	}

	sum := 0
	for i := 0; i < c.Len(); i++ {
		start, end := c.OffsetOf(i)
		require.Equal(t, sum, start)
		require.Less(t, start, end)
		sum = end
	}
	assert.Equal(t, sum, c.TotalHeight())
}

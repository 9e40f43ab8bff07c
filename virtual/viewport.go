package virtual

// Range is an inclusive span of item positions. An empty range has
// Last < First.
type Range struct {
	First int
	Last  int
}

var emptyRange = Range{First: 0, Last: -1}

// Empty reports whether the range holds no positions.
func (r Range) Empty() bool { return r.Last < r.First }

// Len returns the number of positions in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether arrPos lies inside the range.
func (r Range) Contains(arrPos int) bool {
	return !r.Empty() && arrPos >= r.First && arrPos <= r.Last
}

// Viewport is the scroll state supplied by the rendering layer.
type Viewport struct {
	ScrollTop int
	Height    int
	Overscan  int
}

// Visible returns the items intersecting [ScrollTop, ScrollTop+Height).
//
// The forward walk stops on accumulated height rather than an item count, so
// the range covers the viewport however wrong the estimates are. A
// zero-height viewport still yields the item under ScrollTop.
func (v Viewport) Visible(idx *PositionIndex) Range {
	n := idx.Len()
	first, ok := idx.IndexAtOffset(v.ScrollTop)
	if !ok {
		return emptyRange
	}
	bottom := v.ScrollTop + v.Height
	last := first
	for last < n-1 {
		if _, end := idx.OffsetOf(last); end >= bottom {
			break
		}
		last++
	}
	return Range{First: first, Last: last}
}

// Expand widens r by Overscan on both sides, clamped to [0, n-1].
func (v Viewport) Expand(r Range, n int) Range {
	if r.Empty() || n <= 0 {
		return emptyRange
	}
	return Range{
		First: max(0, r.First-v.Overscan),
		Last:  min(n-1, r.Last+v.Overscan),
	}
}

// Render returns the visible range expanded by overscan.
func (v Viewport) Render(idx *PositionIndex) Range {
	return v.Expand(v.Visible(idx), idx.Len())
}

// MaxScroll returns the largest ScrollTop that still fills the viewport.
func (v Viewport) MaxScroll(total int) int {
	return max(0, total-v.Height)
}

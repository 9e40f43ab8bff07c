package virtual

import (
	"fmt"
	"slices"
)

// HeightCache stores the effective height of every item in the collection.
//
// An item's effective height is its measured height when one has been
// recorded, otherwise the cache-wide estimate. Any change to an effective
// height is reported to the stale hook with the first affected position, so
// the Position Index can drop its cumulative offsets from there onward.
type HeightCache struct {
	estimate int

	// measured[i] is 0 while item i is unmeasured. Measurements are floored
	// to 1, so 0 never collides with a real height.
	measured []int

	// total is the sum of effective heights; unmeasured counts zero
	// entries in measured.
	total      int
	unmeasured int

	stale func(from int)
}

// NewHeightCache returns a cache for n items, all unmeasured.
func NewHeightCache(n, estimate int) *HeightCache {
	if n < 0 {
		n = 0
	}
	return &HeightCache{
		estimate:   estimate,
		measured:   make([]int, n),
		total:      n * estimate,
		unmeasured: n,
	}
}

// OnStale installs the hook called whenever effective heights from a given
// position onward have changed. It replaces any previous hook.
func (c *HeightCache) OnStale(fn func(from int)) {
	c.stale = fn
}

func (c *HeightCache) notify(from int) {
	if c.stale != nil {
		c.stale(from)
	}
}

// Len returns the number of items tracked.
func (c *HeightCache) Len() int { return len(c.measured) }

// Estimate returns the fallback height.
func (c *HeightCache) Estimate() int { return c.estimate }

// Total returns the sum of all effective heights in O(1).
func (c *HeightCache) Total() int { return c.total }

// Get returns the effective height of the item at arrPos. Positions beyond
// the collection clamp to the nearest valid index; an empty cache returns 0.
func (c *HeightCache) Get(arrPos int) int {
	if len(c.measured) == 0 {
		return 0
	}
	arrPos = clamp(arrPos, 0, len(c.measured)-1)
	if h := c.measured[arrPos]; h > 0 {
		return h
	}
	return c.estimate
}

// Measured reports whether the item at arrPos has a recorded measurement.
func (c *HeightCache) Measured(arrPos int) bool {
	if arrPos < 0 || arrPos >= len(c.measured) {
		return false
	}
	return c.measured[arrPos] > 0
}

// SetMeasured records a real height for the item at arrPos. Heights below
// one line are floored to 1. changed reports whether the effective height
// moved; recording a measurement equal to the estimate marks the item
// measured without changing offsets.
func (c *HeightCache) SetMeasured(arrPos, height int) (changed bool, err error) {
	if arrPos < 0 || arrPos >= len(c.measured) {
		return false, fmt.Errorf("%w: arrPos %d, len %d", ErrOutOfBounds, arrPos, len(c.measured))
	}
	if height < 1 {
		height = 1
	}
	prev := c.Get(arrPos)
	if c.measured[arrPos] == 0 {
		c.unmeasured--
	}
	c.measured[arrPos] = height
	c.total += height - prev
	if prev == height {
		return false, nil
	}
	c.notify(arrPos)
	return true, nil
}

// Invalidate drops the measurement for arrPos so the estimate applies again.
// Out-of-range positions are ignored.
func (c *HeightCache) Invalidate(arrPos int) {
	if arrPos < 0 || arrPos >= len(c.measured) {
		return
	}
	prev := c.measured[arrPos]
	if prev == 0 {
		return
	}
	c.measured[arrPos] = 0
	c.unmeasured++
	c.total += c.estimate - prev
	if prev != c.estimate {
		c.notify(arrPos)
	}
}

// InvalidateAll drops every measurement.
func (c *HeightCache) InvalidateAll() {
	clear(c.measured)
	c.unmeasured = len(c.measured)
	c.total = c.unmeasured * c.estimate
	if len(c.measured) > 0 {
		c.notify(0)
	}
}

// SetEstimate changes the fallback height used for unmeasured items.
func (c *HeightCache) SetEstimate(h int) error {
	if h <= 0 {
		return fmt.Errorf("%w: estimated height %d must be positive", ErrInvalidConfiguration, h)
	}
	if h == c.estimate {
		return nil
	}
	c.total += c.unmeasured * (h - c.estimate)
	c.estimate = h
	for i, m := range c.measured {
		if m == 0 {
			c.notify(i)
			break
		}
	}
	return nil
}

// Insert adds n unmeasured entries at position at (clamped to [0, Len]).
// Entries at and after at shift by n.
func (c *HeightCache) Insert(at, n int) {
	if n <= 0 {
		return
	}
	at = clamp(at, 0, len(c.measured))
	c.measured = slices.Insert(c.measured, at, make([]int, n)...)
	c.unmeasured += n
	c.total += n * c.estimate
	c.notify(at)
}

// Remove discards the entry at arrPos. Entries after it shift down by one.
func (c *HeightCache) Remove(arrPos int) bool {
	if arrPos < 0 || arrPos >= len(c.measured) {
		return false
	}
	c.total -= c.Get(arrPos)
	if c.measured[arrPos] == 0 {
		c.unmeasured--
	}
	c.measured = slices.Delete(c.measured, arrPos, arrPos+1)
	c.notify(arrPos)
	return true
}

// Reset discards all entries and tracks n unmeasured items.
func (c *HeightCache) Reset(n int) {
	if n < 0 {
		n = 0
	}
	c.measured = make([]int, n)
	c.unmeasured = n
	c.total = n * c.estimate
	c.notify(0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

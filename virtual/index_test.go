package virtual

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformIndex(n, estimate int) (*HeightCache, *PositionIndex) {
	h := NewHeightCache(n, estimate)
	return h, NewPositionIndex(h)
}

// linearIndexAt is the reference the binary search must agree with.
func linearIndexAt(h *HeightCache, offset int) int {
	pos := 0
	for i := 0; i < h.Len(); i++ {
		pos += h.Get(i)
		if offset < pos {
			return i
		}
	}
	return h.Len() - 1
}

func requireContiguous(t *testing.T, h *HeightCache, p *PositionIndex) {
	t.Helper()
	sum := 0
	for i := 0; i < h.Len(); i++ {
		start, end := p.OffsetOf(i)
		require.Equal(t, sum, start, "startPos(%d)", i)
		require.Less(t, start, end, "item %d must have positive height", i)
		require.Equal(t, h.Get(i), end-start, "height(%d)", i)
		sum = end
	}
	require.Equal(t, sum, p.TotalHeight())
}

func TestPositionIndex_Empty(t *testing.T) {
	_, p := uniformIndex(0, 50)
	assert.Equal(t, 0, p.TotalHeight())

	idx, ok := p.IndexAtOffset(0)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	start, end := p.OffsetOf(3)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestPositionIndex_Uniform(t *testing.T) {
	_, p := uniformIndex(1000, 50)
	assert.Equal(t, 50000, p.TotalHeight())

	cases := map[int]int{
		-10:   0,
		0:     0,
		49:    0,
		50:    1,
		275:   5,
		49999: 999,
		50000: 999,
		99999: 999,
	}
	for offset, want := range cases {
		got, ok := p.IndexAtOffset(offset)
		require.True(t, ok)
		assert.Equal(t, want, got, "offset %d", offset)
	}

	start, end := p.OffsetOf(5)
	assert.Equal(t, 250, start)
	assert.Equal(t, 300, end)

	start, end = p.OffsetOf(5000)
	assert.Equal(t, 49950, start, "clamped to the last item")
	assert.Equal(t, 50000, end)
}

func TestPositionIndex_RecomputesLazily(t *testing.T) {
	h, p := uniformIndex(100, 50)
	assert.Equal(t, 0, p.Watermark())

	p.OffsetOf(9)
	assert.Equal(t, 10, p.Watermark())

	_, _ = h.SetMeasured(3, 120)
	assert.Equal(t, 3, p.Watermark())

	// Offset 100 lies in the still-valid prefix; nothing is recomputed.
	idx, _ := p.IndexAtOffset(100)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, p.Watermark())

	// Offset 400 needs the stale region, but only up to the item holding it.
	idx, _ = p.IndexAtOffset(400)
	assert.Equal(t, 6, idx) // ends of items 2..6: 150, 270, 320, 370, 420
	assert.Equal(t, 7, p.Watermark())
}

func TestPositionIndex_BurstCostsOnePass(t *testing.T) {
	h, p := uniformIndex(1000, 10)
	require.Equal(t, 10000, p.TotalHeight())

	for i := 900; i >= 100; i -= 100 {
		_, _ = h.SetMeasured(i, 20)
	}
	assert.Equal(t, 100, p.Watermark(), "watermark sits at the lowest stale position")

	assert.Equal(t, 10000+9*10, p.TotalHeight())
	assert.Equal(t, 100, p.Watermark(), "the total does not walk the table")

	_, end := p.OffsetOf(999)
	assert.Equal(t, 10000+9*10, end)
	assert.Equal(t, 1000, p.Watermark())
}

func TestPositionIndex_MeasurementShiftsSuffix(t *testing.T) {
	h, p := uniformIndex(1000, 50)
	before := make([]int, 20)
	for i := range before {
		before[i], _ = p.OffsetOf(i)
	}
	_, _ = h.SetMeasured(5, 120)

	assert.Equal(t, 50070, p.TotalHeight())
	for i := range before {
		start, _ := p.OffsetOf(i)
		if i <= 5 {
			assert.Equal(t, before[i], start, "item %d", i)
		} else {
			assert.Equal(t, before[i]+70, start, "item %d", i)
		}
	}
}

func TestPositionIndex_RemoveReindexes(t *testing.T) {
	h, p := uniformIndex(10, 50)
	for i := 0; i < 10; i++ {
		_, _ = h.SetMeasured(i, 10*(i+1))
	}
	require.Equal(t, 550, p.TotalHeight())
	oldHeights := make([]int, 10)
	for i := range oldHeights {
		oldHeights[i] = h.Get(i)
	}

	require.True(t, h.Remove(3))
	assert.Equal(t, 3, p.Watermark())
	for i := 3; i < 9; i++ {
		assert.Equal(t, oldHeights[i+1], h.Get(i), "old item %d is now at %d", i+1, i)
	}
	assert.Equal(t, 550-40, p.TotalHeight(), "removed geometry is gone")
	requireContiguous(t, h, p)
}

func TestPositionIndex_InsertReindexes(t *testing.T) {
	h, p := uniformIndex(5, 10)
	require.Equal(t, 50, p.TotalHeight())

	h.Insert(2, 3)
	assert.Equal(t, 2, p.Watermark())
	assert.Equal(t, 80, p.TotalHeight())
	start, _ := p.OffsetOf(5)
	assert.Equal(t, 50, start)
	requireContiguous(t, h, p)
}

func TestPositionIndex_ContiguousAfterRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h, p := uniformIndex(300, 4)

	for round := 0; round < 200; round++ {
		switch op := rng.IntN(10); {
		case op < 6:
			_, _ = h.SetMeasured(rng.IntN(h.Len()), 1+rng.IntN(15))
		case op < 7:
			h.Invalidate(rng.IntN(h.Len()))
		case op < 8:
			h.Insert(rng.IntN(h.Len()+1), 1+rng.IntN(3))
		case op < 9 && h.Len() > 1:
			h.Remove(rng.IntN(h.Len()))
		default:
			// Interleave reads so the watermark sits at arbitrary points.
			p.IndexAtOffset(rng.IntN(p.TotalHeight() + 1))
		}
	}
	requireContiguous(t, h, p)
}

func TestPositionIndex_IndexAtOffsetMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	h, p := uniformIndex(200, 3)

	for round := 0; round < 20; round++ {
		for range 10 {
			_, _ = h.SetMeasured(rng.IntN(h.Len()), 1+rng.IntN(12))
		}
		total := p.TotalHeight()
		for offset := 0; offset < total; offset++ {
			got, ok := p.IndexAtOffset(offset)
			require.True(t, ok)
			require.Equal(t, linearIndexAt(h, offset), got, "round %d offset %d", round, offset)
		}
	}
}

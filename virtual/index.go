package virtual

import "sort"

// PositionIndex maps items to cumulative vertical offsets.
//
// ends[i] holds endPos(i); startPos(i) is ends[i-1], or 0 for the first
// item. Only ends[:valid] is trusted. Height changes lower the watermark and
// the walk is deferred until a read needs the stale region, so a burst of
// measurements costs one forward pass.
type PositionIndex struct {
	heights *HeightCache
	ends    []int
	valid   int
}

// NewPositionIndex builds an index over heights and subscribes to its stale
// notifications.
func NewPositionIndex(heights *HeightCache) *PositionIndex {
	p := &PositionIndex{
		heights: heights,
		ends:    make([]int, heights.Len()),
	}
	heights.OnStale(p.Invalidate)
	return p
}

// Len returns the number of indexed items.
func (p *PositionIndex) Len() int { return p.heights.Len() }

// Watermark returns the number of leading entries whose offsets are current.
func (p *PositionIndex) Watermark() int {
	p.sync()
	return p.valid
}

// Invalidate marks offsets from arrPos onward as stale.
func (p *PositionIndex) Invalidate(from int) {
	if from < 0 {
		from = 0
	}
	if from < p.valid {
		p.valid = from
	}
}

// sync resizes the table after inserts/removes. The prefix below the
// watermark is unaffected by a mutation at or after it.
func (p *PositionIndex) sync() {
	n := p.heights.Len()
	switch {
	case n < len(p.ends):
		p.ends = p.ends[:n]
	case n > len(p.ends):
		p.ends = append(p.ends, make([]int, n-len(p.ends))...)
	}
	if p.valid > n {
		p.valid = n
	}
}

// extend recomputes ends up to and including upTo in one forward pass from
// the last known-good value.
func (p *PositionIndex) extend(upTo int) {
	p.sync()
	if upTo >= len(p.ends) {
		upTo = len(p.ends) - 1
	}
	if upTo < p.valid {
		return
	}
	sum := p.endBefore(p.valid)
	for i := p.valid; i <= upTo; i++ {
		sum += p.heights.Get(i)
		p.ends[i] = sum
	}
	p.valid = upTo + 1
}

func (p *PositionIndex) endBefore(i int) int {
	if i == 0 {
		return 0
	}
	return p.ends[i-1]
}

// OffsetOf returns the start and end offsets of the item at arrPos.
// Positions outside the collection clamp to the nearest valid index; an
// empty index returns (0, 0).
func (p *PositionIndex) OffsetOf(arrPos int) (start, end int) {
	n := p.heights.Len()
	if n == 0 {
		return 0, 0
	}
	arrPos = clamp(arrPos, 0, n-1)
	p.extend(arrPos)
	return p.endBefore(arrPos), p.ends[arrPos]
}

// IndexAtOffset returns the item whose [start, end) range contains offset.
// Negative offsets resolve to the first item and offsets past the end to the
// last. ok is false only for an empty collection.
func (p *PositionIndex) IndexAtOffset(offset int) (arrPos int, ok bool) {
	p.sync()
	n := len(p.ends)
	if n == 0 {
		return -1, false
	}
	if offset < 0 {
		offset = 0
	}
	// Extend only as far as the offset requires.
	if p.valid == 0 || p.ends[p.valid-1] <= offset {
		sum := p.endBefore(p.valid)
		for p.valid < n && sum <= offset {
			sum += p.heights.Get(p.valid)
			p.ends[p.valid] = sum
			p.valid++
		}
		if sum <= offset {
			return n - 1, true
		}
	}
	return sort.Search(p.valid, func(i int) bool { return p.ends[i] > offset }), true
}

// TotalHeight returns the sum of all effective heights. It reads the
// cache's running total and never walks the table.
func (p *PositionIndex) TotalHeight() int { return p.heights.Total() }

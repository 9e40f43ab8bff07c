package list

import (
	"cmp"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
)

// ---------------------------------------------------------------------------
// FilterableList
// ---------------------------------------------------------------------------

// filteredItem pairs an Item with its match score and character positions.
type filteredItem struct {
	item    Item
	score   int
	indices []int // matched byte positions within the item's filter value
}

// FilterableList wraps a Model with filtering support. When the filter
// string is empty, all items are shown in original order. When non-empty,
// only items whose filter value contains the filter (case-insensitive
// substring match) are shown, best match first, with matched positions
// forwarded to any MatchSettable implementations.
//
// Narrowing and widening the filter goes through Model.SetItems, so items
// keep their measured heights across filter changes.
type FilterableList struct {
	list     Model
	allItems []Item
	filter   string
	matches  []filteredItem
}

// NewFilterableList constructs a FilterableList over a new Model.
func NewFilterableList(opts ...Option) (FilterableList, error) {
	m, err := New(opts...)
	if err != nil {
		return FilterableList{}, err
	}
	return FilterableList{list: m}, nil
}

// List returns the underlying list for scrolling and queries.
func (fl *FilterableList) List() *Model { return &fl.list }

// SetItems replaces the full item set and re-applies the current filter.
func (fl *FilterableList) SetItems(items []Item) {
	fl.allItems = slices.Clone(items)
	fl.applyFilter()
}

// AppendItem adds an item to the full set. Without a filter it goes straight
// to the list so follow mode applies.
func (fl *FilterableList) AppendItem(item Item) {
	fl.allItems = append(fl.allItems, item)
	if fl.filter == "" {
		fl.list.AppendItem(item)
		return
	}
	fl.applyFilter()
}

// RemoveItem deletes the item with the given id from the full set.
func (fl *FilterableList) RemoveItem(id string) bool {
	i := slices.IndexFunc(fl.allItems, func(it Item) bool { return it.ID() == id })
	if i < 0 {
		return false
	}
	fl.allItems = slices.Delete(fl.allItems, i, i+1)
	fl.matches = slices.DeleteFunc(fl.matches, func(f filteredItem) bool { return f.item.ID() == id })
	fl.list.RemoveItem(id)
	return true
}

// UpdateItem replaces the item with the given id.
func (fl *FilterableList) UpdateItem(id string, item Item) {
	i := slices.IndexFunc(fl.allItems, func(it Item) bool { return it.ID() == id })
	if i < 0 {
		return
	}
	fl.allItems[i] = item
	if fl.filter == "" {
		fl.list.UpdateItem(id, item)
		return
	}
	fl.applyFilter()
}

// Len returns the size of the full, unfiltered set.
func (fl FilterableList) Len() int { return len(fl.allItems) }

// SetFilter updates the filter string and re-computes visible items.
func (fl *FilterableList) SetFilter(filter string) {
	if filter == fl.filter {
		return
	}
	fl.filter = filter
	fl.applyFilter()
	fl.list.ScrollToTop()
}

// Filter returns the current filter string.
func (fl FilterableList) Filter() string {
	return fl.filter
}

// FilteredItems returns the items currently passing the filter (in order).
func (fl FilterableList) FilteredItems() []Item {
	if fl.filter == "" {
		return slices.Clone(fl.allItems)
	}
	result := make([]Item, len(fl.matches))
	for i, m := range fl.matches {
		result[i] = m.item
	}
	return result
}

// SelectedItem returns the item currently at the top of the viewport.
// Returns nil if the list is empty.
func (fl FilterableList) SelectedItem() Item {
	visible := fl.list.VisibleItemIndices()
	if len(visible) == 0 {
		return nil
	}
	return fl.list.ItemAt(visible[0])
}

// SetSize updates the viewport dimensions of the underlying list.
func (fl *FilterableList) SetSize(w, h int) {
	fl.list.SetSize(w, h)
}

// Update forwards tea.Msg to the underlying list model.
func (fl FilterableList) Update(msg tea.Msg) (FilterableList, tea.Cmd) {
	var cmd tea.Cmd
	fl.list, cmd = fl.list.Update(msg)
	return fl, cmd
}

// View renders the filtered list.
func (fl FilterableList) View() string {
	return fl.list.View()
}

// ---------------------------------------------------------------------------
// Internal: filter application
// ---------------------------------------------------------------------------

// applyFilter rebuilds the matches slice and pushes the visible items into
// the underlying list model. Match positions are forwarded to MatchSettable
// items so they can highlight matched characters in their Render output.
func (fl *FilterableList) applyFilter() {
	if fl.filter == "" {
		// No filter: show all items, clear any stale match highlights.
		for _, item := range fl.allItems {
			if ms, ok := item.(MatchSettable); ok {
				ms.SetMatches(nil)
			}
		}
		fl.matches = nil
		fl.list.SetItems(fl.allItems)
		return
	}

	lower := strings.ToLower(fl.filter)
	fl.matches = fl.matches[:0]

	for _, item := range fl.allItems {
		value := strings.ToLower(filterValue(item))
		indices := substringIndices(value, lower)
		if indices == nil {
			if ms, ok := item.(MatchSettable); ok {
				ms.SetMatches(nil)
			}
			continue
		}
		if ms, ok := item.(MatchSettable); ok {
			ms.SetMatches(indices)
		}
		fl.matches = append(fl.matches, filteredItem{
			item:    item,
			score:   scoreMatch(value, lower, indices),
			indices: indices,
		})
	}

	// Stable: equal scores keep collection order.
	slices.SortStableFunc(fl.matches, func(a, b filteredItem) int {
		return cmp.Compare(b.score, a.score)
	})

	visible := make([]Item, len(fl.matches))
	for i, m := range fl.matches {
		visible[i] = m.item
	}
	fl.list.SetItems(visible)
}

func filterValue(item Item) string {
	if f, ok := item.(Filterable); ok {
		return f.FilterValue()
	}
	return item.ID()
}

// substringIndices returns the byte positions in s where the pattern p
// appears (first contiguous occurrence). Returns nil if not found.
// Caller must lower-case both inputs.
func substringIndices(s, p string) []int {
	if p == "" {
		return []int{}
	}
	idx := strings.Index(s, p)
	if idx < 0 {
		return nil
	}
	positions := make([]int, len(p))
	for i := range p {
		positions[i] = idx + i
	}
	return positions
}

// scoreMatch assigns a quality score to a match. Higher is better.
//   - Prefix match (match starts at 0): +10
//   - Shorter string (less noise): +bonus
func scoreMatch(s, p string, indices []int) int {
	score := 100
	if len(indices) > 0 && indices[0] == 0 {
		score += 10 // prefix bonus
	}
	// Penalise longer strings.
	if len(s) > len(p) {
		score -= len(s) - len(p)
	}
	return score
}

package source

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"

	"github.com/miosa/osa-vlist/style"
)

// Selected is emitted when a Content item is clicked.
type Selected struct {
	Entry Entry
}

// Content is the list item for one Entry. It implements list.Item,
// list.Filterable, list.MatchSettable and list.MouseClickable.
type Content struct {
	entry   Entry
	ordinal int
	version int
	matches []int
}

// NewContent wraps e for display. ordinal is the 1-based position shown in
// the item header.
func NewContent(e Entry, ordinal int) *Content {
	return &Content{entry: e, ordinal: ordinal, version: 1}
}

// NewContents wraps entries in order.
func NewContents(entries []Entry) []*Content {
	out := make([]*Content, len(entries))
	for i, e := range entries {
		out[i] = NewContent(e, i+1)
	}
	return out
}

func (c *Content) ID() string          { return c.entry.ID }
func (c *Content) ContentVersion() int { return c.version }
func (c *Content) FilterValue() string { return c.entry.Title }

// Entry returns the wrapped record.
func (c *Content) Entry() Entry { return c.entry }

// SetEntry replaces the record, keeping the item's identity.
func (c *Content) SetEntry(e Entry) {
	e.ID = c.entry.ID
	c.entry = e
	c.version++
}

// HandleClick reports the item as selected.
func (c *Content) HandleClick(x, y int) tea.Cmd {
	e := c.entry
	return func() tea.Msg { return Selected{Entry: e} }
}

// SetMatches sets the byte positions in the title to highlight.
func (c *Content) SetMatches(positions []int) {
	if len(positions) == 0 && len(c.matches) == 0 {
		return
	}
	c.matches = positions
	c.version++
}

// Render draws the header line, the meta line and the markdown body inside
// the item box, wrapped to width.
func (c *Content) Render(width int) string {
	box := style.ItemBox
	inner := max(1, width-box.GetHorizontalFrameSize())

	var sb strings.Builder
	sb.WriteString(style.ItemIndex.Render(fmt.Sprintf("%d ", c.ordinal)))
	sb.WriteString(highlight(c.entry.Title, c.matches))
	if c.entry.Meta != "" {
		sb.WriteString("\n")
		sb.WriteString(style.ItemMeta.Render(c.entry.Meta))
	}
	if body := renderMarkdown(c.entry.Body, inner); body != "" {
		sb.WriteString("\n")
		sb.WriteString(body)
	}
	return box.Width(width).Render(sb.String())
}

// highlight renders title with the matched byte positions in the match
// style. Positions that would split a rune are ignored.
func highlight(title string, positions []int) string {
	if len(positions) == 0 {
		return style.ItemTitle.Render(title)
	}
	start, end := positions[0], positions[len(positions)-1]+1
	if start < 0 || end > len(title) || start >= end ||
		!utf8.RuneStart(title[start]) || (end < len(title) && !utf8.RuneStart(title[end])) {
		return style.ItemTitle.Render(title)
	}
	var sb strings.Builder
	if start > 0 {
		sb.WriteString(style.ItemTitle.Render(title[:start]))
	}
	sb.WriteString(style.ItemMatch.Render(title[start:end]))
	if end < len(title) {
		sb.WriteString(style.ItemTitle.Render(title[end:]))
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Markdown rendering
// ---------------------------------------------------------------------------

type rendererKey struct {
	width int
	style string
}

var (
	renderersMu sync.Mutex
	renderers   = map[rendererKey]*glamour.TermRenderer{}
)

// renderMarkdown renders markdown text using glamour, falling back to plain
// text on error. Renderers are shared per width and theme.
func renderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	key := rendererKey{width: width, style: style.GlamourStyle()}

	renderersMu.Lock()
	defer renderersMu.Unlock()
	r, ok := renderers[key]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(key.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		renderers[key] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// glamour pads with blank lines; trim for inline display.
	return strings.Trim(out, "\n")
}

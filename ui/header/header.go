// Package header renders the one-line title bar above the list.
package header

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-vlist/style"
	"github.com/miosa/osa-vlist/ui/common"
)

// Model holds the state for the compact header.
type Model struct {
	version string
	source  string
	origin  string // repo path for git, seed for synthetic
	count   int
	shown   int
	loading bool
	width   int
}

// New returns a Model for the given build version.
func New(version string) Model {
	return Model{version: version, shown: -1}
}

// SetSource sets the data source name and where it comes from.
func (m *Model) SetSource(name, origin string) {
	m.source = name
	m.origin = origin
}

// SetCount updates the total entry count and how many pass the filter.
// shown < 0 means no filter is applied.
func (m *Model) SetCount(total, shown int) {
	m.count = total
	m.shown = shown
}

// SetLoading marks the source as loading.
func (m *Model) SetLoading(b bool) { m.loading = b }

// SetWidth updates the terminal width used for separator and truncation.
func (m *Model) SetWidth(w int) { m.width = w }

// Version returns the version string.
func (m Model) Version() string { return m.version }

// View returns the compact one-line header.
func (m Model) View() string {
	title := style.GradientText("osa-vlist", style.GradColorA, style.GradColorB, true)
	sep := style.HeaderSeparator.Render(" · ")

	parts := []string{title + style.HeaderMeta.Render(" "+m.version)}
	if m.source != "" {
		parts = append(parts, style.HeaderTitle.Render(m.source))
	}
	switch {
	case m.loading:
		parts = append(parts, style.StatusBusy.Render("loading…"))
	case m.shown >= 0:
		parts = append(parts, style.HeaderMeta.Render(fmt.Sprintf("%s of %s entries",
			common.HumanCount(m.shown), common.HumanCount(m.count))))
	default:
		parts = append(parts, style.HeaderMeta.Render(common.HumanCount(m.count)+" entries"))
	}
	line := strings.Join(parts, sep)

	if m.origin != "" && m.width > 0 {
		room := m.width - lipgloss.Width(line) - lipgloss.Width(sep)
		if room >= 8 {
			line += sep + style.HeaderMeta.Render(common.TruncatePath(m.origin, room))
		}
	}
	if m.width > 0 {
		line = common.Truncate(line, m.width)
	}
	return line
}

// HeaderView returns the compact header plus a thin separator line.
func (m Model) HeaderView() string {
	return m.View() + "\n" + common.Divider(m.width)
}

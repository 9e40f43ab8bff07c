// Package status provides the bottom status bar. It renders the render
// window's geometry, the controller state and the process footprint.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/miosa/osa-vlist/style"
	"github.com/miosa/osa-vlist/sysmon"
	"github.com/miosa/osa-vlist/ui/common"
	"github.com/miosa/osa-vlist/ui/list"
	"github.com/miosa/osa-vlist/virtual"
)

// Model is the status bar state. Drive it via setter methods; it has no Update loop.
type Model struct {
	stats    list.Stats
	proc     sysmon.Stats
	hasProc  bool
	follow   bool
	loadTime time.Duration
	width    int
}

// New returns a zero-value Model.
func New() Model {
	return Model{}
}

// SetStats updates the list geometry shown.
func (m *Model) SetStats(s list.Stats) { m.stats = s }

// SetProc updates the process footprint shown.
func (m *Model) SetProc(p sysmon.Stats) {
	m.proc = p
	m.hasProc = true
}

// SetFollow sets whether follow mode is on.
func (m *Model) SetFollow(b bool) { m.follow = b }

// SetLoadTime records how long the last source load took.
func (m *Model) SetLoadTime(d time.Duration) { m.loadTime = d }

// SetWidth updates the width the bar is truncated to.
func (m *Model) SetWidth(w int) { m.width = w }

// View renders the status line:
//
//	● idle  rows 120–164 of 10000 · mounted 57 · top 4211/38002 · follow · 24.1M 3% · sys 61% · g 9
func (m Model) View() string {
	s := m.stats
	sep := style.HelpSeparator.Render(" · ")

	parts := []string{statePill(s.State) + "  " + kv("rows", rangeLabel(s.Visible, s.Items))}
	parts = append(parts, kv("mounted", fmt.Sprintf("%d", s.Mounted)))
	if s.Pending > 0 {
		parts = append(parts, kv("pending", fmt.Sprintf("%d", s.Pending)))
	}
	parts = append(parts, kv("top", fmt.Sprintf("%d/%d", s.ScrollTop, s.TotalHeight)))
	if m.follow {
		parts = append(parts, style.StatusValue.Render("follow"))
	}
	if m.loadTime > 0 {
		parts = append(parts, kv("load", common.HumanDuration(m.loadTime)))
	}
	if m.hasProc {
		parts = append(parts, style.StatusKey.Render(
			fmt.Sprintf("%s %.0f%%", sysmon.FormatBytes(m.proc.RSS), m.proc.CPU)))
		if m.proc.SysMem > 0 {
			parts = append(parts, kv("sys", fmt.Sprintf("%.0f%%", m.proc.SysMem)))
		}
		if m.proc.Goroutines > 0 {
			parts = append(parts, kv("g", fmt.Sprintf("%d", m.proc.Goroutines)))
		}
	}

	line := style.StatusBar.Render(strings.Join(parts, sep))
	if m.width > 0 {
		line = common.Truncate(line, m.width)
	}
	return line
}

func kv(k, v string) string {
	return style.StatusKey.Render(k+" ") + style.StatusValue.Render(v)
}

func rangeLabel(r virtual.Range, total int) string {
	if r.Empty() {
		return fmt.Sprintf("– of %d", total)
	}
	return fmt.Sprintf("%d–%d of %d", r.First+1, r.Last+1, total)
}

func statePill(s virtual.State) string {
	label := "● " + s.String()
	switch s {
	case virtual.StateIdle:
		return style.StatusIdle.Render(label)
	case virtual.StateMeasuring:
		return style.StatusBusy.Render(label)
	default:
		return style.StatusDirty.Render(label)
	}
}

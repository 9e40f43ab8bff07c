package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/miosa/osa-vlist/style"
)

// ---------------------------------------------------------------------------
// Text truncation / padding
// ---------------------------------------------------------------------------

// Truncate cuts s to width display columns, appending "…" if truncated.
// ANSI sequences in s are preserved.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// TruncatePath shortens a filesystem path to fit maxWidth columns.
// Strategy (first that fits): full path → ~/relative → …/last-two → …/basename.
func TruncatePath(path string, maxWidth int) string {
	if lipgloss.Width(path) <= maxWidth {
		return path
	}

	if home, err := os.UserHomeDir(); err == nil {
		if rel, err2 := filepath.Rel(home, path); err2 == nil && !strings.HasPrefix(rel, "..") {
			homePath := "~/" + rel
			if lipgloss.Width(homePath) <= maxWidth {
				return homePath
			}
		}
	}

	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	if len(parts) >= 2 {
		lastTwo := "…/" + strings.Join(parts[len(parts)-2:], string(filepath.Separator))
		if lipgloss.Width(lastTwo) <= maxWidth {
			return lastTwo
		}
	}

	base := "…/" + filepath.Base(path)
	if lipgloss.Width(base) <= maxWidth {
		return base
	}
	return Truncate(base, maxWidth)
}

// PadRight pads s on the right with spaces until the rendered display width
// equals width. Returns s unchanged if it already meets or exceeds width.
func PadRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Divider returns a horizontal rule of the given width rendered in the border color.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return style.HeaderSeparator.Render(strings.Repeat("─", width))
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// HumanDuration formats d compactly:
//
//	450ms  → "450ms"
//	3.2s   → "3.2s"
//	90s    → "1m 30s"
func HumanDuration(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 1_000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", float64(ms)/1_000)
	default:
		return fmt.Sprintf("%dm %ds", ms/60_000, (ms/1_000)%60)
	}
}

// HumanCount formats n with a k/M suffix: 950 → "950", 12_400 → "12.4k".
func HumanCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

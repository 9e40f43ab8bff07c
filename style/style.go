// Package style holds the color palette and lipgloss styles shared by every
// view. Styles are package-level vars rebuilt whenever the theme changes.
package style

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Colors, initialized to dark theme defaults. Updated via SetTheme().
var (
	Primary   color.Color = lipgloss.Color("#7C3AED")
	Secondary color.Color = lipgloss.Color("#06B6D4")
	Success   color.Color = lipgloss.Color("#22C55E")
	Warning   color.Color = lipgloss.Color("#F59E0B")
	Error     color.Color = lipgloss.Color("#EF4444")
	Muted     color.Color = lipgloss.Color("#6B7280")
	Dim       color.Color = lipgloss.Color("#374151")
	Border    color.Color = lipgloss.Color("#4B5563")
	MatchBg   color.Color = lipgloss.Color("#312E81")

	// Gradient endpoints, violet→cyan on the dark theme
	GradColorA color.Color = lipgloss.Color("#7C3AED")
	GradColorB color.Color = lipgloss.Color("#06B6D4")
)

// Base styles, rebuilt when the theme changes via rebuildStyles().
var (
	Faint     lipgloss.Style
	ErrorText lipgloss.Style
	Hint      lipgloss.Style

	// Header
	HeaderTitle     lipgloss.Style
	HeaderMeta      lipgloss.Style
	HeaderSeparator lipgloss.Style

	// List items
	ItemBox   lipgloss.Style
	ItemTitle lipgloss.Style
	ItemMeta  lipgloss.Style
	ItemIndex lipgloss.Style
	ItemMatch lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	StatusIdle  lipgloss.Style
	StatusBusy  lipgloss.Style
	StatusDirty lipgloss.Style

	// Filter bar
	FilterPrompt lipgloss.Style

	// Help
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style

	// Scrollbar
	ScrollbarThumb lipgloss.Style
	ScrollbarTrack lipgloss.Style
)

func init() {
	rebuildStyles()
}

// SetTheme applies a named theme, updating all color vars and rebuilding styles.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if !ok {
		return false
	}
	CurrentThemeName = name
	Primary = t.Primary
	Secondary = t.Secondary
	Success = t.Success
	Warning = t.Warning
	Error = t.Error
	Muted = t.Muted
	Dim = t.Dim
	Border = t.Border
	MatchBg = t.MatchBg
	GradColorA = t.GradA
	GradColorB = t.GradB
	rebuildStyles()
	return true
}

// IsDark returns whether the current theme is dark.
func IsDark() bool {
	return Themes[CurrentThemeName].Dark
}

// GlamourStyle returns the glamour standard style matching the theme.
func GlamourStyle() string {
	if IsDark() {
		return "dark"
	}
	return "light"
}

func rebuildStyles() {
	Faint = lipgloss.NewStyle().Foreground(Muted)
	ErrorText = lipgloss.NewStyle().Foreground(Error).Bold(true)
	Hint = lipgloss.NewStyle().Foreground(Dim)

	HeaderTitle = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HeaderMeta = lipgloss.NewStyle().Foreground(Muted)
	HeaderSeparator = lipgloss.NewStyle().Foreground(Dim)

	ItemBox = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(Border).
		PaddingLeft(1)
	ItemTitle = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	ItemMeta = lipgloss.NewStyle().Foreground(Muted).Italic(true)
	ItemIndex = lipgloss.NewStyle().Foreground(Dim)
	ItemMatch = lipgloss.NewStyle().Foreground(Primary).Background(MatchBg).Bold(true)

	StatusBar = lipgloss.NewStyle().Foreground(Muted).PaddingLeft(1)
	StatusKey = lipgloss.NewStyle().Foreground(Muted)
	StatusValue = lipgloss.NewStyle().Foreground(Secondary)
	StatusIdle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	StatusBusy = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	StatusDirty = lipgloss.NewStyle().Foreground(Error).Bold(true)

	FilterPrompt = lipgloss.NewStyle().Foreground(Primary).Bold(true)

	HelpKey = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	HelpDesc = lipgloss.NewStyle().Foreground(Muted)
	HelpSeparator = lipgloss.NewStyle().Foreground(Dim)

	ScrollbarThumb = lipgloss.NewStyle().Foreground(Primary)
	ScrollbarTrack = lipgloss.NewStyle().Foreground(Dim)
}

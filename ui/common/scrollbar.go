// Package common holds small view helpers shared by the app and list views.
package common

import (
	"strings"

	"github.com/miosa/osa-vlist/style"
)

const (
	scrollTrackChar = "│"
	scrollThumbChar = "┃"
)

// Thumb returns the position and size of the scrollbar thumb on a track of
// viewportHeight rows for content of totalHeight lines scrolled to
// scrollTop. ok is false when the content fits and no scrollbar is needed.
//
// totalHeight may still contain estimates; the thumb moves as they are
// replaced by measurements, which is the expected behavior of a virtual list.
func Thumb(viewportHeight, totalHeight, scrollTop int) (top, size int, ok bool) {
	vh, total := viewportHeight, totalHeight
	if vh <= 0 || total <= vh {
		return 0, 0, false
	}

	size = max(1, min(vh, vh*vh/total))
	scrollable := total - vh
	top = scrollTop * (vh - size) / scrollable
	top = max(0, min(top, vh-size))
	return top, size, true
}

// Scrollbar renders a vertical scrollbar as a single column of
// viewportHeight rows. When the content fits within the viewport the
// returned string is empty.
func Scrollbar(viewportHeight, totalHeight, scrollTop int) string {
	top, size, ok := Thumb(viewportHeight, totalHeight, scrollTop)
	if !ok {
		return ""
	}
	rows := make([]string, viewportHeight)
	for i := range rows {
		if i >= top && i < top+size {
			rows[i] = style.ScrollbarThumb.Render(scrollThumbChar)
		} else {
			rows[i] = style.ScrollbarTrack.Render(scrollTrackChar)
		}
	}
	return strings.Join(rows, "\n")
}

package app

const (
	// headerHeight is the header line plus its separator.
	headerHeight = 2
	statusHeight = 1
	helpHeight   = 1

	// scrollbarWidth is the column kept right of the list.
	scrollbarWidth = 1

	// minListWidth and minListHeight keep the list usable in tiny terminals.
	minListWidth  = 10
	minListHeight = 1
)

// Layout holds computed dimensions for the current frame.
type Layout struct {
	TermWidth    int
	TermHeight   int
	HeaderHeight int
	FilterHeight int // 1 while the filter bar is shown
	ToastHeight  int
	StatusHeight int
	HelpHeight   int
	ListWidth    int
	ListHeight   int
}

// ComputeLayout calculates the layout dimensions based on terminal size.
// The list gets whatever the header, filter bar, toasts, status and help
// lines leave over; the scrollbar takes one column on the right.
func ComputeLayout(termW, termH int, filterOpen bool, toasts int) Layout {
	l := Layout{
		TermWidth:    termW,
		TermHeight:   termH,
		HeaderHeight: headerHeight,
		ToastHeight:  max(0, toasts),
		StatusHeight: statusHeight,
		HelpHeight:   helpHeight,
	}
	if filterOpen {
		l.FilterHeight = 1
	}

	l.ListWidth = max(minListWidth, termW-scrollbarWidth)

	reserved := l.HeaderHeight + l.FilterHeight + l.ToastHeight + l.StatusHeight + l.HelpHeight
	l.ListHeight = max(minListHeight, termH-reserved)
	return l
}

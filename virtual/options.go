package virtual

import (
	"fmt"
	"log/slog"
)

const (
	// DefaultEstimatedHeight is the height, in lines, assumed for an item
	// before it has been measured.
	DefaultEstimatedHeight = 3

	// DefaultOverscan is the number of items mounted above and below the
	// visible range.
	DefaultOverscan = 5

	// DefaultScrollThreshold is the scroll distance, in lines, that forces a
	// window recompute.
	DefaultScrollThreshold = 1
)

// Options configures a Controller.
type Options struct {
	EstimatedHeight int
	Overscan        int
	ScrollThreshold int

	// Anchor keeps visible content in place when items above the viewport
	// change height or are inserted/removed.
	Anchor bool

	Logger *slog.Logger
}

// DefaultOptions returns the options New starts from.
func DefaultOptions() Options {
	return Options{
		EstimatedHeight: DefaultEstimatedHeight,
		Overscan:        DefaultOverscan,
		ScrollThreshold: DefaultScrollThreshold,
		Anchor:          true,
	}
}

// Validate reports the first setting that would break offset invariants.
func (o Options) Validate() error {
	if o.EstimatedHeight <= 0 {
		return fmt.Errorf("%w: estimated height %d must be positive", ErrInvalidConfiguration, o.EstimatedHeight)
	}
	if o.Overscan <= 0 {
		return fmt.Errorf("%w: overscan %d must be positive", ErrInvalidConfiguration, o.Overscan)
	}
	if o.ScrollThreshold <= 0 {
		return fmt.Errorf("%w: scroll threshold %d must be positive", ErrInvalidConfiguration, o.ScrollThreshold)
	}
	return nil
}

// Option is a functional option for New.
type Option func(*Options)

// WithEstimatedHeight sets the fallback height for unmeasured items.
func WithEstimatedHeight(h int) Option {
	return func(o *Options) { o.EstimatedHeight = h }
}

// WithOverscan sets how many extra items are mounted on each side of the
// visible range.
func WithOverscan(n int) Option {
	return func(o *Options) { o.Overscan = n }
}

// WithScrollThreshold sets the minimum scroll delta since the last emitted
// window that forces a recompute.
func WithScrollThreshold(n int) Option {
	return func(o *Options) { o.ScrollThreshold = n }
}

// WithScrollAnchoring toggles scroll anchoring.
func WithScrollAnchoring(on bool) Option {
	return func(o *Options) { o.Anchor = on }
}

// WithLogger routes debug output (state transitions, discarded
// measurements) to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

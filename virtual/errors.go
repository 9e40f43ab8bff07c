package virtual

import "errors"

var (
	// ErrInvalidConfiguration is returned when an option would break the
	// offset invariants: a non-positive estimated height, overscan or scroll
	// threshold. Values are never coerced.
	ErrInvalidConfiguration = errors.New("virtual: invalid configuration")

	// ErrOutOfBounds reports a position outside the current collection.
	// Reads clamp instead of returning it; only the Height Cache surfaces it.
	ErrOutOfBounds = errors.New("virtual: position out of bounds")

	// ErrStaleMeasurement marks a measurement for an item that no longer
	// exists. The controller discards these.
	ErrStaleMeasurement = errors.New("virtual: stale measurement")
)

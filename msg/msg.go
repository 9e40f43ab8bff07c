// Package msg defines the tea.Msg types dispatched within the viewer.
// It has no upstream imports beyond the data packages to avoid import cycles.
package msg

import (
	"time"

	"github.com/miosa/osa-vlist/source"
	"github.com/miosa/osa-vlist/sysmon"
)

// -- Data source --

// EntriesLoaded carries the result of a source load.
type EntriesLoaded struct {
	Source  string
	Entries []source.Entry
	Elapsed time.Duration
	Err     error
}

// -- Ticks --

// TickMsg drives toast expiry and stats sampling.
type TickMsg struct{}

// ProcSampled carries one process footprint sample.
type ProcSampled struct {
	Stats sysmon.Stats
	Err   error
}

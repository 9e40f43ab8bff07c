// Package sysmon samples the viewer's own resource usage for the status bar.
package sysmon

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is one resource sample.
type Stats struct {
	RSS        uint64  // resident set size in bytes
	CPU        float64 // process CPU percent since the previous sample
	SysMem     float64 // system memory used percent
	Goroutines int
}

// Sampler reads Stats for the current process.
type Sampler struct {
	proc *process.Process
}

// New returns a Sampler bound to the running process.
func New() (*Sampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("sysmon: open process: %w", err)
	}
	return &Sampler{proc: p}, nil
}

// Sample reads the current Stats. System memory is best-effort and stays
// zero when unavailable.
func (s *Sampler) Sample(ctx context.Context) (Stats, error) {
	memInfo, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("sysmon: memory info: %w", err)
	}
	cpuPct, err := s.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("sysmon: cpu percent: %w", err)
	}

	st := Stats{
		RSS:        memInfo.RSS,
		CPU:        cpuPct,
		Goroutines: runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		st.SysMem = vm.UsedPercent
	}
	return st, nil
}

// FormatBytes renders n as a compact human-readable size.
// e.g. 1536 → "1.5K", 52428800 → "50.0M".
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

package ycsb

import (
	"time"
)

// Phase is the outcome of one phase.
type Phase struct {
	Name    string
	Ops     uint64
	Elapsed time.Duration
}

// MTPS returns the throughput in millions of operations per second.
func (p Phase) MTPS() float64 {
	secs := p.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(p.Ops) / secs / 1e6
}

// Report is the outcome of a run. Optional phases that did not run are nil.
type Report struct {
	Load         Phase
	Verify       *Phase
	Scan         *Phase
	Transactions *Phase

	// Transaction mix.
	Reads   uint64
	Updates uint64
	// Lookups and updates that did not find their key. Always zero after a
	// complete load.
	Misses uint64
}

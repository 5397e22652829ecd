package olctree

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    insertCounter   prometheus.Counter
//	    lookupHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordInsert(duration time.Duration, err error) {
//	    p.insertCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordLookup is called after each point lookup.
	RecordLookup(found bool, duration time.Duration, err error)

	// RecordUpdate is called after each update operation.
	RecordUpdate(found bool, duration time.Duration, err error)

	// RecordScan is called after each range scan with the number of entries visited.
	RecordScan(visited int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)       {}
func (NoopMetricsCollector) RecordLookup(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordUpdate(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	LookupCount      atomic.Int64
	LookupMisses     atomic.Int64
	LookupErrors     atomic.Int64
	LookupTotalNanos atomic.Int64
	UpdateCount      atomic.Int64
	UpdateMisses     atomic.Int64
	UpdateErrors     atomic.Int64
	ScanCount        atomic.Int64
	ScanVisited      atomic.Int64
	ScanErrors       atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(found bool, duration time.Duration, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
		return
	}
	if !found {
		b.LookupMisses.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(found bool, duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
		return
	}
	if !found {
		b.UpdateMisses.Add(1)
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(visited int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanVisited.Add(int64(visited))
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avgNanos(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		LookupCount:    b.LookupCount.Load(),
		LookupMisses:   b.LookupMisses.Load(),
		LookupErrors:   b.LookupErrors.Load(),
		LookupAvgNanos: avgNanos(b.LookupTotalNanos.Load(), b.LookupCount.Load()),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateMisses:   b.UpdateMisses.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		ScanCount:      b.ScanCount.Load(),
		ScanVisited:    b.ScanVisited.Load(),
		ScanErrors:     b.ScanErrors.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	LookupCount    int64
	LookupMisses   int64
	LookupErrors   int64
	LookupAvgNanos int64
	UpdateCount    int64
	UpdateMisses   int64
	UpdateErrors   int64
	ScanCount      int64
	ScanVisited    int64
	ScanErrors     int64
}

package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/olctree"
)

// PrometheusCollector implements olctree.MetricsCollector.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	misses    *prometheus.CounterVec
	scanned   prometheus.Counter
}

// NewPrometheusCollector creates the operation metrics and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "olctree_operation_latency_seconds",
			Help:    "Latency of index operations",
			Buckets: prometheus.ExponentialBuckets(100e-9, 4, 10), // 100ns .. ~26ms
		}, []string{"op"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olctree_operations_total",
			Help: "Total index operations",
		}, []string{"op", "status"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olctree_key_misses_total",
			Help: "Lookups and updates that did not find their key",
		}, []string{"op"}),
		scanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "olctree_scanned_entries_total",
			Help: "Entries visited by range scans",
		}),
	}

	reg.MustRegister(c.opLatency, c.ops, c.misses, c.scanned)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements olctree.MetricsCollector.
func (c *PrometheusCollector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert").Observe(d.Seconds())
	c.ops.WithLabelValues("insert", status(err)).Inc()
}

// RecordLookup implements olctree.MetricsCollector.
func (c *PrometheusCollector) RecordLookup(found bool, d time.Duration, err error) {
	c.opLatency.WithLabelValues("lookup").Observe(d.Seconds())
	c.ops.WithLabelValues("lookup", status(err)).Inc()
	if err == nil && !found {
		c.misses.WithLabelValues("lookup").Inc()
	}
}

// RecordUpdate implements olctree.MetricsCollector.
func (c *PrometheusCollector) RecordUpdate(found bool, d time.Duration, err error) {
	c.opLatency.WithLabelValues("update").Observe(d.Seconds())
	c.ops.WithLabelValues("update", status(err)).Inc()
	if err == nil && !found {
		c.misses.WithLabelValues("update").Inc()
	}
}

// RecordScan implements olctree.MetricsCollector.
func (c *PrometheusCollector) RecordScan(visited int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("scan").Observe(d.Seconds())
	c.ops.WithLabelValues("scan", status(err)).Inc()
	c.scanned.Add(float64(visited))
}

// RegisterIndexGauges exposes the index statistics as gauges read at scrape time.
func RegisterIndexGauges(reg prometheus.Registerer, idx *olctree.Index) {
	gauge := func(name, help string, fn func(s olctree.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return fn(idx.Stats())
		})
	}

	reg.MustRegister(
		gauge("olctree_entries", "Distinct keys in the index", func(s olctree.Stats) float64 { return float64(s.Entries) }),
		gauge("olctree_restarts", "Restarted tree operations", func(s olctree.Stats) float64 { return float64(s.Restarts) }),
		gauge("olctree_height", "Levels in the tree", func(s olctree.Stats) float64 { return float64(s.Height) }),
		gauge("olctree_arena_used_bytes", "Arena bytes handed out as pages", func(s olctree.Stats) float64 { return float64(s.ArenaUsed) }),
		gauge("olctree_arena_reserved_bytes", "Arena bytes reserved", func(s olctree.Stats) float64 { return float64(s.ArenaBytes) }),
	)
}

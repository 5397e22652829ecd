package olctree

import (
	"log/slog"

	"github.com/hupe1980/olctree/internal/arena"
	"github.com/hupe1980/olctree/internal/btree"
)

const (
	// DefaultArenaCapacity is the default size of the page arena (64MB).
	DefaultArenaCapacity = 64 << 20
)

type options struct {
	pageSize         int
	arenaCapacity    int
	payloadSize      int
	offHeap          bool
	memoryLimit      int64
	conflictRate     float64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Index.
type Option func(*options)

// WithPageSize sets the size of one tree node in bytes. It must be a multiple
// of 8 and large enough for a handful of entries of the payload size.
//
// Larger pages mean a flatter tree and fewer splits; smaller pages mean less
// data copied per split and less contention per node.
func WithPageSize(size int) Option {
	return func(o *options) {
		o.pageSize = size
	}
}

// WithArenaCapacity sets the number of bytes preallocated for tree nodes.
// Pages are never returned, so the capacity bounds the lifetime size of the
// index. Inserts that need a page beyond it fail with ErrArenaFull.
func WithArenaCapacity(bytes int) Option {
	return func(o *options) {
		o.arenaCapacity = bytes
	}
}

// WithPayloadSize sets the fixed payload size in bytes.
func WithPayloadSize(size int) Option {
	return func(o *options) {
		o.payloadSize = size
	}
}

// WithOffHeap places the arena in an anonymous memory mapping instead of the
// Go heap. The garbage collector never scans the mapping.
func WithOffHeap(enabled bool) Option {
	return func(o *options) {
		o.offHeap = enabled
	}
}

// WithMemoryLimit caps the memory the arena may reserve. New fails with
// ErrMemoryLimitExceeded when the arena capacity is larger. Zero means no limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithConflictRate makes inserts restart with the given probability after they
// acquired their locks. It is meant for testing the restart path.
//
// The rate must be in [0, 1).
func WithConflictRate(rate float64) Option {
	return func(o *options) {
		o.conflictRate = rate
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &olctree.BasicMetricsCollector{}
//	idx, _ := olctree.New(olctree.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := olctree.NewJSONLogger(slog.LevelInfo)
//	idx, _ := olctree.New(olctree.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pageSize:         arena.DefaultPageSize,
		arenaCapacity:    DefaultArenaCapacity,
		payloadSize:      btree.DefaultPayloadSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

package olctree

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/hupe1980/olctree/internal/arena"
	"github.com/hupe1980/olctree/internal/btree"
	"github.com/hupe1980/olctree/internal/resource"
)

// scanCheckInterval is how many visited entries pass between context checks.
const scanCheckInterval = 64

// Index is a concurrent ordered map from uint64 keys to fixed-size payloads.
//
// All methods are safe for concurrent use, except Close, which must not run
// concurrently with any other method.
type Index struct {
	tree    *btree.Tree
	arena   *arena.Arena
	rc      *resource.Controller
	metrics MetricsCollector
	logger  *Logger
	closed  atomic.Bool
}

// Stats is a point-in-time view of an Index.
type Stats struct {
	Entries       uint64
	Restarts      uint64
	Height        int
	LeafNodes     uint64
	InnerNodes    uint64
	LeafCapacity  int
	InnerCapacity int
	PayloadSize   int

	PageSize       int
	PagesTotal     uint64
	PagesAllocated uint64
	ArenaBytes     uint64
	ArenaUsed      uint64
	OffHeap        bool

	MemoryUsage int64
	MemoryLimit int64
}

// New creates an empty index.
func New(optFns ...Option) (*Index, error) {
	return NewContext(context.Background(), optFns...)
}

// NewContext is New with a context for reserving the arena.
func NewContext(ctx context.Context, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	arenaOpts := []arena.Option{
		arena.WithOffHeap(opts.offHeap),
	}

	var rc *resource.Controller
	if opts.memoryLimit > 0 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes: opts.memoryLimit,
		})
		arenaOpts = append(arenaOpts, arena.WithMemoryAcquirer(rc))
	}

	a, err := arena.NewContext(ctx, opts.pageSize, opts.arenaCapacity, arenaOpts...)
	if err != nil {
		err = translateError(err)
		opts.logger.ErrorContext(ctx, "index creation failed", "error", err)
		return nil, fmt.Errorf("olctree: create arena: %w", err)
	}

	tree, err := btree.New(a, func(o *btree.Options) {
		o.PayloadSize = opts.payloadSize
		o.ConflictRate = opts.conflictRate
	})
	if err != nil {
		_ = a.Close()
		err = translateError(err)
		opts.logger.ErrorContext(ctx, "index creation failed", "error", err)
		return nil, fmt.Errorf("olctree: create tree: %w", err)
	}

	idx := &Index{
		tree:    tree,
		arena:   a,
		rc:      rc,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}

	idx.logger.InfoContext(ctx, "index created",
		"page_size", a.PageSize(),
		"arena_bytes", a.Stats().BytesReserved,
		"payload_size", tree.PayloadSize(),
		"leaf_capacity", tree.LeafCapacity(),
		"inner_capacity", tree.InnerCapacity(),
		"off_heap", opts.offHeap,
	)

	return idx, nil
}

func (idx *Index) check(ctx context.Context) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// PayloadSize returns the payload size in bytes.
func (idx *Index) PayloadSize() int {
	return idx.tree.PayloadSize()
}

// Insert stores payload under key, replacing any existing payload.
// payload must be exactly PayloadSize() bytes.
func (idx *Index) Insert(ctx context.Context, key uint64, payload []byte) error {
	start := time.Now()
	err := idx.insert(ctx, key, payload)
	idx.metrics.RecordInsert(time.Since(start), err)
	idx.logger.LogInsert(ctx, key, err)
	return err
}

func (idx *Index) insert(ctx context.Context, key uint64, payload []byte) error {
	if err := idx.check(ctx); err != nil {
		return err
	}
	if len(payload) != idx.tree.PayloadSize() {
		return &ErrPayloadSize{Expected: idx.tree.PayloadSize(), Actual: len(payload)}
	}
	return translateError(idx.tree.Insert(key, payload))
}

// Lookup returns a copy of the payload stored under key.
func (idx *Index) Lookup(ctx context.Context, key uint64) ([]byte, bool, error) {
	dst := make([]byte, idx.tree.PayloadSize())
	found, err := idx.LookupInto(ctx, key, dst)
	if !found || err != nil {
		return nil, false, err
	}
	return dst, true, nil
}

// LookupInto copies the payload stored under key into dst, which must be
// PayloadSize() bytes, and reports whether the key exists. dst is left in an
// unspecified state when the key does not exist.
func (idx *Index) LookupInto(ctx context.Context, key uint64, dst []byte) (bool, error) {
	start := time.Now()
	found, err := idx.lookup(ctx, key, dst)
	idx.metrics.RecordLookup(found, time.Since(start), err)
	idx.logger.LogLookup(ctx, key, found, err)
	return found, err
}

func (idx *Index) lookup(ctx context.Context, key uint64, dst []byte) (bool, error) {
	if err := idx.check(ctx); err != nil {
		return false, err
	}
	if len(dst) != idx.tree.PayloadSize() {
		return false, &ErrPayloadSize{Expected: idx.tree.PayloadSize(), Actual: len(dst)}
	}
	return idx.tree.Lookup(key, dst), nil
}

// Update applies fn to the payload stored under key and reports whether the
// key exists. Changes fn makes to its argument are written back atomically
// with respect to other writers of the same key.
//
// fn runs while a node lock is held; it must be short and must not call into
// the index.
func (idx *Index) Update(ctx context.Context, key uint64, fn func(payload []byte)) (bool, error) {
	start := time.Now()
	found, err := idx.update(ctx, key, fn)
	idx.metrics.RecordUpdate(found, time.Since(start), err)
	idx.logger.LogUpdate(ctx, key, found, err)
	return found, err
}

func (idx *Index) update(ctx context.Context, key uint64, fn func([]byte)) (bool, error) {
	if err := idx.check(ctx); err != nil {
		return false, err
	}
	return idx.tree.Update(key, fn), nil
}

// Scan calls fn for each entry with key >= start in ascending key order until
// fn returns false. The payload slice is only valid during the call.
//
// Scan is not a snapshot: entries inserted concurrently may or may not be
// visited, but keys are always visited in strictly ascending order.
func (idx *Index) Scan(ctx context.Context, start uint64, fn func(key uint64, payload []byte) bool) error {
	began := time.Now()
	visited, err := idx.scan(ctx, start, fn)
	idx.metrics.RecordScan(visited, time.Since(began), err)
	idx.logger.LogScan(ctx, start, visited, err)
	return err
}

func (idx *Index) scan(ctx context.Context, start uint64, fn func(uint64, []byte) bool) (int, error) {
	if err := idx.check(ctx); err != nil {
		return 0, err
	}

	var (
		visited int
		err     error
	)
	idx.tree.Scan(start, func(key uint64, payload []byte) bool {
		if visited%scanCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		visited++
		return fn(key, payload)
	})
	return visited, err
}

// Ascend returns an iterator over the entries with key >= start in ascending
// key order. The payload slice is reused between iterations; copy it to keep it.
//
// Iteration ends early when ctx is done or the index is closed; check
// ctx.Err() after the loop to tell the two apart from exhaustion.
//
// Example:
//
//	for key, payload := range idx.Ascend(ctx, 100) {
//	    if key > 200 {
//	        break
//	    }
//	    process(key, payload)
//	}
func (idx *Index) Ascend(ctx context.Context, start uint64) iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		_ = idx.Scan(ctx, start, yield)
	}
}

// Stats returns index statistics.
func (idx *Index) Stats() Stats {
	ts := idx.tree.Stats()
	return Stats{
		Entries:        ts.Entries,
		Restarts:       ts.Restarts,
		Height:         ts.Height,
		LeafNodes:      ts.LeafNodes,
		InnerNodes:     ts.InnerNodes,
		LeafCapacity:   ts.LeafCapacity,
		InnerCapacity:  ts.InnerCapacity,
		PayloadSize:    ts.PayloadSize,
		PageSize:       ts.Arena.PageSize,
		PagesTotal:     ts.Arena.PagesTotal,
		PagesAllocated: ts.Arena.PagesAllocated,
		ArenaBytes:     ts.Arena.BytesReserved,
		ArenaUsed:      ts.Arena.BytesUsed,
		OffHeap:        ts.Arena.OffHeap,
		MemoryUsage:    idx.rc.MemoryUsage(),
		MemoryLimit:    idx.rc.MemoryLimit(),
	}
}

// Close releases the arena. Every later call returns ErrClosed.
// Close is idempotent.
func (idx *Index) Close() error {
	if idx == nil || idx.closed.Swap(true) {
		return nil
	}

	stats := idx.Stats()
	err := idx.arena.Close()
	idx.logger.Info("index closed",
		"entries", stats.Entries,
		"restarts", stats.Restarts,
		"height", stats.Height,
	)
	return err
}

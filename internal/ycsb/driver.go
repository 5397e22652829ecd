package ycsb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/olctree/internal/hash"
	"github.com/hupe1980/olctree/internal/workload"
)

// ErrVerifyFailed is returned when the verification scan finds the store
// disagreeing with what was loaded.
var ErrVerifyFailed = errors.New("ycsb: verification failed")

// Store is the index under test.
type Store interface {
	PayloadSize() int
	Insert(ctx context.Context, key uint64, payload []byte) error
	LookupInto(ctx context.Context, key uint64, dst []byte) (bool, error)
	Update(ctx context.Context, key uint64, fn func(payload []byte)) (bool, error)
	Scan(ctx context.Context, start uint64, fn func(key uint64, payload []byte) bool) error
}

type driver struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	size   int
}

// Run executes the configured phases against store. store must be empty.
func Run(ctx context.Context, store Store, cfg Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &driver{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "ycsb"),
		size:   store.PayloadSize(),
	}

	report := &Report{}

	load, digest, err := d.load(ctx)
	report.Load = load
	if err != nil {
		return report, err
	}
	d.logPhase(ctx, load)

	if cfg.Verify {
		verify, err := d.verify(ctx, digest)
		if err != nil {
			return report, err
		}
		report.Verify = &verify
		d.logPhase(ctx, verify)
	}

	if cfg.Scan {
		scan, misses, err := d.scan(ctx)
		if err != nil {
			return report, err
		}
		report.Scan = &scan
		report.Misses += misses
		d.logPhase(ctx, scan)
	}

	if cfg.RunFor > 0 {
		tx, err := d.transactions(ctx, report)
		if err != nil {
			return report, err
		}
		report.Transactions = &tx
		d.logPhase(ctx, tx)
	}

	return report, nil
}

func (d *driver) logPhase(ctx context.Context, p Phase) {
	d.logger.InfoContext(ctx, "phase completed",
		"phase", p.Name,
		"ops", p.Ops,
		"elapsed", p.Elapsed,
		"mtps", p.MTPS(),
	)
}

// load inserts [0, Tuples) and returns the digest of everything written.
func (d *driver) load(ctx context.Context) (Phase, hash.Digest, error) {
	ranges := workload.Partition(d.cfg.Tuples, d.cfg.Workers)
	digests := make([]hash.Digest, len(ranges))

	d.logger.InfoContext(ctx, "loading", "tuples", d.cfg.Tuples, "workers", len(ranges))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, rg := range ranges {
		g.Go(func() error {
			r := workload.NewRand(d.cfg.Seed, uint64(i))
			payload := make([]byte, d.size)
			for k := rg.Begin; k < rg.End; k++ {
				workload.FillPayload(r, payload)
				if err := d.store.Insert(gctx, k, payload); err != nil {
					return fmt.Errorf("ycsb: load key %d: %w", k, err)
				}
				digests[i].Add(k, payload)
			}
			return nil
		})
	}
	err := g.Wait()

	phase := Phase{Name: "load", Ops: d.cfg.Tuples, Elapsed: time.Since(start)}

	var digest hash.Digest
	for _, dg := range digests {
		digest.Merge(dg)
	}
	return phase, digest, err
}

// verify scans the whole store once.
func (d *driver) verify(ctx context.Context, want hash.Digest) (Phase, error) {
	start := time.Now()

	var (
		seen  = roaring64.New()
		got   hash.Digest
		prev  uint64
		first = true
		verr  error
	)

	err := d.store.Scan(ctx, 0, func(key uint64, payload []byte) bool {
		if !first && key <= prev {
			verr = fmt.Errorf("%w: key %d after %d", ErrVerifyFailed, key, prev)
			return false
		}
		if key >= d.cfg.Tuples {
			verr = fmt.Errorf("%w: unexpected key %d", ErrVerifyFailed, key)
			return false
		}
		seen.Add(key)
		got.Add(key, payload)
		prev, first = key, false
		return true
	})
	if err != nil {
		return Phase{}, fmt.Errorf("ycsb: verify scan: %w", err)
	}
	if verr != nil {
		return Phase{}, verr
	}

	expected := roaring64.New()
	expected.AddRange(0, d.cfg.Tuples)
	if missing := roaring64.AndNot(expected, seen); !missing.IsEmpty() {
		return Phase{}, fmt.Errorf("%w: %d keys missing, first %d", ErrVerifyFailed, missing.GetCardinality(), missing.Minimum())
	}
	if got != want {
		return Phase{}, fmt.Errorf("%w: payload digest %08x, want %08x", ErrVerifyFailed, got.Sum, want.Sum)
	}

	return Phase{Name: "verify", Ops: seen.GetCardinality(), Elapsed: time.Since(start)}, nil
}

// scan looks up every loaded key once.
func (d *driver) scan(ctx context.Context) (Phase, uint64, error) {
	ranges := workload.Partition(d.cfg.Tuples, d.cfg.Workers)

	var misses atomic.Uint64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, rg := range ranges {
		g.Go(func() error {
			dst := make([]byte, d.size)
			var n uint64
			for k := rg.Begin; k < rg.End; k++ {
				found, err := d.store.LookupInto(gctx, k, dst)
				if err != nil {
					return fmt.Errorf("ycsb: lookup key %d: %w", k, err)
				}
				if !found {
					n++
				}
			}
			misses.Add(n)
			return nil
		})
	}
	err := g.Wait()

	return Phase{Name: "scan", Ops: d.cfg.Tuples, Elapsed: time.Since(start)}, misses.Load(), err
}

// transactions runs the read/update mix until RunFor has passed.
func (d *driver) transactions(ctx context.Context, report *Report) (Phase, error) {
	gen, err := workload.NewKeyGenerator(d.cfg.Tuples, d.cfg.Zipf)
	if err != nil {
		return Phase{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	d.logger.InfoContext(ctx, "running transactions",
		"read_ratio", d.cfg.ReadRatio,
		"zipf", d.cfg.Zipf,
		"run_for", d.cfg.RunFor,
	)

	runCtx, cancel := context.WithTimeout(ctx, d.cfg.RunFor)
	defer cancel()

	var reads, updates, misses atomic.Uint64

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < d.cfg.Workers; w++ {
		g.Go(func() error {
			// Streams after the load workers' so payloads differ from the loaded ones.
			r := workload.NewRand(d.cfg.Seed, uint64(d.cfg.Workers+w))
			dst := make([]byte, d.size)
			fresh := make([]byte, d.size)
			set := func(p []byte) { copy(p, fresh) }

			var nr, nu, nm uint64
			defer func() {
				reads.Add(nr)
				updates.Add(nu)
				misses.Add(nm)
			}()

			for gctx.Err() == nil {
				if err := d.cfg.Controller.AcquireOps(gctx, 1); err != nil {
					// The limiter refuses waits that would outlast the run.
					return ctx.Err()
				}

				key := gen.Next(r)

				var (
					found bool
					err   error
				)
				if d.cfg.ReadRatio == 100 || r.IntN(100) < d.cfg.ReadRatio {
					found, err = d.store.LookupInto(gctx, key, dst)
					if err == nil {
						nr++
					}
				} else {
					workload.FillPayload(r, fresh)
					found, err = d.store.Update(gctx, key, set)
					if err == nil {
						nu++
					}
				}

				if err != nil {
					if gctx.Err() != nil && ctx.Err() == nil {
						return nil
					}
					return fmt.Errorf("ycsb: transaction on key %d: %w", key, err)
				}
				if !found {
					nm++
				}
			}
			return nil
		})
	}
	err = g.Wait()
	elapsed := time.Since(start)

	report.Reads += reads.Load()
	report.Updates += updates.Load()
	report.Misses += misses.Load()

	return Phase{Name: "transactions", Ops: reads.Load() + updates.Load(), Elapsed: elapsed}, err
}

package ycsb

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/olctree"
	"github.com/hupe1980/olctree/internal/resource"
)

func newIndex(t *testing.T, payloadSize int) *olctree.Index {
	t.Helper()

	idx, err := olctree.New(
		olctree.WithPageSize(512),
		olctree.WithArenaCapacity(32<<20),
		olctree.WithPayloadSize(payloadSize),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func testConfig() Config {
	return Config{
		Tuples:    20000,
		ReadRatio: 50,
		Workers:   4,
		RunFor:    100 * time.Millisecond,
		Zipf:      0.99,
		Scan:      true,
		Verify:    true,
		Seed:      7,
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t, 120)

	var logs strings.Builder
	cfg := testConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	report, err := Run(ctx, idx, cfg)
	require.NoError(t, err)

	assert.Equal(t, "load", report.Load.Name)
	assert.Equal(t, cfg.Tuples, report.Load.Ops)
	assert.Greater(t, report.Load.MTPS(), 0.0)

	require.NotNil(t, report.Verify)
	assert.Equal(t, cfg.Tuples, report.Verify.Ops)

	require.NotNil(t, report.Scan)
	assert.Equal(t, cfg.Tuples, report.Scan.Ops)

	require.NotNil(t, report.Transactions)
	assert.Equal(t, report.Reads+report.Updates, report.Transactions.Ops)
	assert.Greater(t, report.Reads, uint64(0))
	assert.Greater(t, report.Updates, uint64(0))
	assert.Zero(t, report.Misses)
	assert.GreaterOrEqual(t, report.Transactions.Elapsed, cfg.RunFor)

	assert.Equal(t, uint64(cfg.Tuples), idx.Stats().Entries)
	assert.Contains(t, logs.String(), "phase=verify")
	assert.Contains(t, logs.String(), "component=ycsb")
}

func TestRunLoadOnly(t *testing.T) {
	idx := newIndex(t, 8)

	cfg := Config{Tuples: 1000, Workers: 3, Seed: 1}
	report, err := Run(context.Background(), idx, cfg)
	require.NoError(t, err)

	assert.Nil(t, report.Verify)
	assert.Nil(t, report.Scan)
	assert.Nil(t, report.Transactions)
	assert.Equal(t, uint64(1000), idx.Stats().Entries)
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Tuples: 500, Workers: 2, Seed: 9}

	a, b := newIndex(t, 16), newIndex(t, 16)
	_, err := Run(ctx, a, cfg)
	require.NoError(t, err)
	_, err = Run(ctx, b, cfg)
	require.NoError(t, err)

	for k := uint64(0); k < cfg.Tuples; k++ {
		pa, _, _ := a.Lookup(ctx, k)
		pb, _, _ := b.Lookup(ctx, k)
		require.Equal(t, pa, pb, "key %d", k)
	}
}

func TestRunPacedTransactions(t *testing.T) {
	idx := newIndex(t, 8)

	cfg := Config{
		Tuples:     1000,
		ReadRatio:  100,
		Workers:    2,
		RunFor:     200 * time.Millisecond,
		Seed:       3,
		Controller: resource.NewController(resource.Config{OpsPerSecond: 1000}),
	}

	report, err := Run(context.Background(), idx, cfg)
	require.NoError(t, err)
	require.NotNil(t, report.Transactions)

	// A burst of 1000 plus about 200 more over the run.
	assert.LessOrEqual(t, report.Transactions.Ops, uint64(1300))
	assert.Zero(t, report.Updates)
}

func TestRunInvalidConfig(t *testing.T) {
	idx := newIndex(t, 8)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no tuples", cfg: Config{Workers: 1}},
		{name: "no workers", cfg: Config{Tuples: 10}},
		{name: "read ratio", cfg: Config{Tuples: 10, Workers: 1, ReadRatio: 101}},
		{name: "negative run", cfg: Config{Tuples: 10, Workers: 1, RunFor: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), idx, tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("zipf", func(t *testing.T) {
		cfg := Config{Tuples: 10, Workers: 1, RunFor: time.Millisecond, Zipf: 1}
		_, err := Run(context.Background(), newIndex(t, 8), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestRunLoadError(t *testing.T) {
	idx, err := olctree.New(olctree.WithPageSize(128), olctree.WithArenaCapacity(32*128))
	require.NoError(t, err)
	defer idx.Close()

	_, err = Run(context.Background(), idx, Config{Tuples: 10000, Workers: 2})
	assert.ErrorIs(t, err, olctree.ErrArenaFull)
}

// lossyStore hides one key from scans.
type lossyStore struct {
	*olctree.Index
	hidden uint64
}

func (s lossyStore) Scan(ctx context.Context, start uint64, fn func(uint64, []byte) bool) error {
	return s.Index.Scan(ctx, start, func(key uint64, payload []byte) bool {
		if key == s.hidden {
			return true
		}
		return fn(key, payload)
	})
}

// corruptStore flips a payload byte during scans.
type corruptStore struct {
	*olctree.Index
}

func (s corruptStore) Scan(ctx context.Context, start uint64, fn func(uint64, []byte) bool) error {
	return s.Index.Scan(ctx, start, func(key uint64, payload []byte) bool {
		if key == 3 {
			payload[0] ^= 0xFF
		}
		return fn(key, payload)
	})
}

func TestVerifyDetectsProblems(t *testing.T) {
	cfg := Config{Tuples: 100, Workers: 2, Verify: true}

	t.Run("missing key", func(t *testing.T) {
		_, err := Run(context.Background(), lossyStore{Index: newIndex(t, 8), hidden: 42}, cfg)
		require.ErrorIs(t, err, ErrVerifyFailed)
		assert.Contains(t, err.Error(), "first 42")
	})

	t.Run("payload digest", func(t *testing.T) {
		_, err := Run(context.Background(), corruptStore{Index: newIndex(t, 8)}, cfg)
		require.ErrorIs(t, err, ErrVerifyFailed)
		assert.Contains(t, err.Error(), "digest")
	})
}

package olctree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/olctree/testutil"
)

func newTestIndex(t *testing.T, optFns ...Option) *Index {
	t.Helper()

	idx, err := New(optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestNewOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults"},
		{name: "off heap", opts: []Option{WithOffHeap(true), WithArenaCapacity(1 << 20)}},
		{name: "nil options are ignored", opts: []Option{nil, WithLogger(nil), WithMetricsCollector(nil)}},
		{name: "page size not word aligned", opts: []Option{WithPageSize(100)}, wantErr: ErrInvalidOptions},
		{name: "page too small", opts: []Option{WithPageSize(32)}, wantErr: ErrInvalidOptions},
		{name: "payload too large", opts: []Option{WithPageSize(128), WithPayloadSize(256)}, wantErr: ErrInvalidOptions},
		{name: "arena too small", opts: []Option{WithArenaCapacity(100)}, wantErr: ErrInvalidOptions},
		{name: "conflict rate out of range", opts: []Option{WithConflictRate(1)}, wantErr: ErrInvalidOptions},
		{name: "memory limit below arena", opts: []Option{WithArenaCapacity(1 << 20), WithMemoryLimit(1 << 10)}, wantErr: ErrMemoryLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := New(tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, idx.Close())
		})
	}
}

func TestMemoryLimit(t *testing.T) {
	idx := newTestIndex(t, WithArenaCapacity(1<<20), WithMemoryLimit(4<<20))

	stats := idx.Stats()
	assert.Equal(t, int64(1<<20), stats.MemoryUsage)
	assert.Equal(t, int64(4<<20), stats.MemoryLimit)

	require.NoError(t, idx.Close())
	assert.Zero(t, idx.Stats().MemoryUsage)
}

func TestInsertLookup(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, idx.Insert(ctx, 2024, payload))

	got, found, err := idx.Lookup(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, got)

	got, found, err = idx.Lookup(ctx, 2023)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	// The returned payload is a copy.
	got, _, _ = idx.Lookup(ctx, 2024)
	got[0] = 99
	again, _, _ := idx.Lookup(ctx, 2024)
	assert.Equal(t, byte(1), again[0])
}

func TestPayloadSizeMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, WithPayloadSize(16))

	err := idx.Insert(ctx, 1, make([]byte, 8))
	var pe *ErrPayloadSize
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 16, pe.Expected)
	assert.Equal(t, 8, pe.Actual)
	assert.Contains(t, pe.Error(), "expected 16")

	_, err = idx.LookupInto(ctx, 1, make([]byte, 4))
	assert.ErrorAs(t, err, &pe)
}

func TestArenaFull(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, WithPageSize(128), WithArenaCapacity(16*128))

	var (
		inserted uint64
		err      error
	)
	for ; inserted < 10000; inserted++ {
		if err = idx.Insert(ctx, inserted, testutil.KeyPayload(inserted, 8)); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrArenaFull)

	for k := uint64(0); k < inserted; k++ {
		got, found, err := idx.Lookup(ctx, k)
		require.NoError(t, err)
		require.True(t, found, "key %d", k)
		require.Equal(t, testutil.KeyPayload(k, 8), got)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Insert(ctx, 5, make([]byte, 8)))

	found, err := idx.Update(ctx, 5, func(p []byte) { p[7] = 42 })
	require.NoError(t, err)
	assert.True(t, found)

	got, _, _ := idx.Lookup(ctx, 5)
	assert.Equal(t, byte(42), got[7])

	found, err = idx.Update(ctx, 6, func([]byte) {})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, WithPageSize(256))

	for k := uint64(0); k < 1000; k++ {
		require.NoError(t, idx.Insert(ctx, k*3, testutil.KeyPayload(k*3, 8)))
	}

	t.Run("range", func(t *testing.T) {
		var keys []uint64
		err := idx.Scan(ctx, 100, func(key uint64, payload []byte) bool {
			assert.Equal(t, testutil.KeyPayload(key, 8), payload)
			keys = append(keys, key)
			return key < 120
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{102, 105, 108, 111, 114, 117, 120}, keys)
	})

	t.Run("ascend", func(t *testing.T) {
		var count int
		prev := uint64(0)
		for key := range idx.Ascend(ctx, 0) {
			if count > 0 {
				assert.Greater(t, key, prev)
			}
			prev = key
			count++
		}
		assert.Equal(t, 1000, count)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)

		var visited int
		err := idx.Scan(cctx, 0, func(uint64, []byte) bool {
			visited++
			if visited == 10 {
				cancel()
			}
			return true
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, visited, 1000)
	})

	t.Run("past the last key", func(t *testing.T) {
		called := false
		require.NoError(t, idx.Scan(ctx, math.MaxUint64, func(uint64, []byte) bool {
			called = true
			return true
		}))
		assert.False(t, called)
	})
}

func TestContextCancelled(t *testing.T) {
	idx := newTestIndex(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, idx.Insert(ctx, 1, make([]byte, 8)), context.Canceled)
	_, _, err := idx.Lookup(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = idx.Update(ctx, 1, func([]byte) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	idx, err := New()
	require.NoError(t, err)

	require.NoError(t, idx.Insert(ctx, 1, make([]byte, 8)))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	assert.ErrorIs(t, idx.Insert(ctx, 1, make([]byte, 8)), ErrClosed)
	_, _, err = idx.Lookup(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = idx.Update(ctx, 1, func([]byte) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, idx.Scan(ctx, 0, func(uint64, []byte) bool { return true }), ErrClosed)
}

func TestConcurrentInsertLookup(t *testing.T) {
	const (
		workers = 8
		total   = 10000
	)

	ctx := context.Background()
	idx := newTestIndex(t, WithPageSize(512), WithConflictRate(0.05))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for k := uint64(w); k < total; k += workers {
				if err := idx.Insert(gctx, k, testutil.KeyPayload(k, 8)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	g, gctx = errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			dst := make([]byte, 8)
			for k := uint64(0); k < total; k++ {
				found, err := idx.LookupInto(gctx, k, dst)
				if err != nil {
					return err
				}
				if !found || !bytes.Equal(dst, testutil.KeyPayload(k, 8)) {
					return errors.New("lost or corrupted key")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats := idx.Stats()
	assert.Equal(t, uint64(total), stats.Entries)
	assert.Greater(t, stats.Restarts, uint64(0))
	assert.Greater(t, stats.Height, 1)
}

func TestMetricsCollector(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	idx := newTestIndex(t, WithMetricsCollector(metrics))

	require.NoError(t, idx.Insert(ctx, 1, make([]byte, 8)))
	require.Error(t, idx.Insert(ctx, 2, make([]byte, 3)))
	_, _, _ = idx.Lookup(ctx, 1)
	_, _, _ = idx.Lookup(ctx, 2)
	_, _ = idx.Update(ctx, 3, func([]byte) {})
	_ = idx.Scan(ctx, 0, func(uint64, []byte) bool { return true })

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(2), stats.LookupCount)
	assert.Equal(t, int64(1), stats.LookupMisses)
	assert.Equal(t, int64(1), stats.UpdateCount)
	assert.Equal(t, int64(1), stats.UpdateMisses)
	assert.Equal(t, int64(1), stats.ScanCount)
	assert.Equal(t, int64(1), stats.ScanVisited)
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	var buf strings.Builder
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	idx := newTestIndex(t, WithLogger(logger.WithComponent("test")))

	require.NoError(t, idx.Insert(ctx, 7, make([]byte, 8)))
	_ = idx.Insert(ctx, 8, nil)

	out := buf.String()
	assert.Contains(t, out, `"msg":"index created"`)
	assert.Contains(t, out, `"msg":"insert completed"`)
	assert.Contains(t, out, `"msg":"insert failed"`)
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"key":7`)
}

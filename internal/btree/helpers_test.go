package btree

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/olctree/internal/arena"
)

// newTestTree builds a tree over a fresh arena that is closed with the test.
func newTestTree(t testing.TB, pageSize, capacity int, optFns ...func(o *Options)) *Tree {
	t.Helper()

	a, err := arena.New(pageSize, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	tr, err := New(a, optFns...)
	require.NoError(t, err)
	return tr
}

func withPayloadSize(size int) func(o *Options) {
	return func(o *Options) {
		o.PayloadSize = size
	}
}

// checkInvariants walks the tree single-threaded and verifies ordering,
// routing, capacity, and balance. It returns every key in leaf order.
func checkInvariants(t *testing.T, tr *Tree) []uint64 {
	t.Helper()

	var (
		keys      []uint64
		leafDepth = -1
		reached   = bitset.New(uint(tr.arena.Stats().PagesAllocated) + 1)
	)

	var walk func(id arena.PageID, depth int, lo uint64, hasLo bool, hi uint64, hasHi bool)
	walk = func(id arena.PageID, depth int, lo uint64, hasLo bool, hi uint64, hasHi bool) {
		require.True(t, tr.arena.Valid(id), "page %d", id)
		require.False(t, reached.Test(uint(id)), "page %d reachable twice", id)
		reached.Set(uint(id))

		n := tr.node(id)
		require.False(t, n.lock().IsLocked(), "page %d left locked", id)

		count := n.count()
		for i := 0; i < count; i++ {
			k := n.key(i)
			if i > 0 {
				require.Greater(t, k, n.key(i-1), "page %d keys out of order", id)
			}
			if hasLo {
				require.Greater(t, k, lo, "page %d key below its range", id)
			}
			if hasHi {
				require.LessOrEqual(t, k, hi, "page %d key above its separator", id)
			}
		}

		switch n.kind() {
		case kindLeaf:
			require.LessOrEqual(t, count, tr.layout.leafCap)
			if leafDepth < 0 {
				leafDepth = depth
			}
			require.Equal(t, leafDepth, depth, "leaves at different depths")
			for i := 0; i < count; i++ {
				keys = append(keys, n.key(i))
			}
		case kindInner:
			require.GreaterOrEqual(t, count, 1)
			require.LessOrEqual(t, count, tr.layout.innerCap-1)
			for i := 0; i <= count; i++ {
				clo, chasLo := lo, hasLo
				if i > 0 {
					clo, chasLo = n.key(i-1), true
				}
				chi, chasHi := hi, hasHi
				if i < count {
					chi, chasHi = n.key(i), true
				}
				walk(n.child(i), depth+1, clo, chasLo, chi, chasHi)
			}
		default:
			t.Fatalf("page %d has kind %s", id, n.kind())
		}
	}

	walk(arena.PageID(tr.root.Load()), 1, 0, false, 0, false)
	require.Equal(t, tr.Height(), leafDepth)
	require.Equal(t, tr.Stats().LeafNodes+tr.Stats().InnerNodes, uint64(reached.Count()), "unreachable nodes")
	return keys
}

// scanAll collects every key from start on.
func scanAll(tr *Tree, start uint64) []uint64 {
	var keys []uint64
	tr.Scan(start, func(key uint64, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

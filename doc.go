// Package olctree provides an in-memory concurrent ordered index for Go.
//
// The index maps uint64 keys to fixed-size payloads and supports point
// lookups, inserts, in-place updates, and ascending range scans from many
// goroutines at once. It is a B+tree with Optimistic Lock Coupling: readers
// never take locks, writers lock at most two nodes, and an operation that
// loses a race with a concurrent writer simply starts over.
//
// # Quick Start
//
//	idx, _ := olctree.New()
//	defer idx.Close()
//
//	_ = idx.Insert(ctx, 2024, []byte{1, 2, 3, 4, 5, 6, 7, 8})
//	payload, found, _ := idx.Lookup(ctx, 2024)
//
//	for key, payload := range idx.Ascend(ctx, 0) {
//	    fmt.Println(key, payload)
//	}
//
// # Memory Model
//
// Tree nodes are fixed-size pages cut from one arena that is reserved up
// front, either on the Go heap or in an anonymous mapping (WithOffHeap).
// Pages are never freed; the arena capacity (WithArenaCapacity) bounds how
// large the index can grow, and an insert beyond it fails with ErrArenaFull
// while leaving the index intact.
//
// # Key Features
//
//   - Lock-free reads validated by per-node version counters
//   - Eager splitting so writers never lock more than parent and child
//   - Race-detector clean: every shared word is accessed atomically
//   - Structured logging (log/slog) and pluggable metrics
package olctree

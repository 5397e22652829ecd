// Package arena provides the fixed-size page allocator behind the B-tree.
//
// An Arena preallocates one block of capacity bytes and hands it out as
// fixed-size pages through an atomically advanced cursor. Pages are never
// reused or freed for the lifetime of the arena; the whole block is released
// at once by Close.
//
// # Features
//
//   - Lock-free allocation (one CAS per page)
//   - Stable integer page ids instead of pointers; id 0 is reserved as null
//   - Pages are exposed as atomic 64-bit words so optimistic readers never race
//   - Optional off-heap backing via anonymous mmap (no GC pressure)
//   - Optional memory budget through a MemoryAcquirer
//
// # Safety
//
// Exhaustion is reported as ErrArenaFull, never as a panic. Page panics only
// for ids that Alloc never returned, which is a programming error.
package arena

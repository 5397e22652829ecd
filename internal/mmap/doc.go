// Package mmap provides anonymous, off-heap memory mappings.
//
// # Overview
//
// The page arena can place its preallocated block outside the Go heap so that
// a large tree does not add to garbage collector scan work. The block holds
// only integers (keys, payload words, page ids), never Go pointers, which is
// what makes off-heap placement safe.
//
// # Usage
//
//	m, err := mmap.MapAnon(64 << 20)
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // zeroed, read-write
//	m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, madvise(2) for hints
//   - Windows: VirtualAlloc with demand paging (Advise is a no-op)
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap

package mem

import (
	"sync/atomic"
	"unsafe"
)

// Alignment is the byte alignment of every allocation (one cache line).
const Alignment = 64

// AllocAligned allocates a zeroed byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// The function allocates Alignment bytes more than requested. The underlying
// array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedWords allocates n zeroed 64-bit atomic words with 64-byte alignment.
func AllocAlignedWords(n int) []atomic.Uint64 {
	if n <= 0 {
		return nil
	}

	b := AllocAligned(n * 8)

	// atomic.Uint64 is a plain 8-byte word; the buffer holds no pointers.
	ptr := unsafe.Pointer(&b[0])                  //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*atomic.Uint64)(ptr), n) //nolint:gosec // unsafe is required for memory alignment
}

package arena

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/olctree/internal/mem"
	"github.com/hupe1980/olctree/internal/mmap"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrArenaFull is returned when every page of the arena has been handed out.
	ErrArenaFull = errors.New("arena: out of pages")
	// ErrClosed is returned when allocating from a closed arena.
	ErrClosed = errors.New("arena: closed")
	// ErrInvalidPageSize is returned for page sizes that are not a multiple of WordSize or below MinPageSize.
	ErrInvalidPageSize = errors.New("arena: invalid page size")
	// ErrInvalidCapacity is returned when the capacity cannot hold at least one usable page.
	ErrInvalidCapacity = errors.New("arena: invalid capacity")
)

const (
	// DefaultPageSize is the default size of one page (4KB).
	DefaultPageSize = 4 * 1024
	// MinPageSize is the smallest page the arena accepts.
	MinPageSize = 64
	// WordSize is the size of one page word in bytes.
	WordSize = 8
	// MaxPages bounds the number of pages addressable by a PageID.
	MaxPages = math.MaxUint32
)

// PageID identifies a page within an arena.
type PageID uint32

// NullPage is never handed out by Alloc.
const NullPage PageID = 0

// Stats tracks arena usage.
type Stats struct {
	PageSize       int    // Bytes per page
	PagesTotal     uint64 // Usable pages (null page excluded)
	PagesAllocated uint64 // Pages handed out so far
	BytesReserved  uint64 // Size of the preallocated block
	BytesUsed      uint64 // PagesAllocated * PageSize
	OffHeap        bool   // Block lives outside the Go heap
}

// Arena is a monotonic page allocator over one preallocated block.
type Arena struct {
	words     []atomic.Uint64
	pageSize  int
	pageWords int
	numPages  uint32        // Including the null page
	next      atomic.Uint32 // MUST be atomic - advanced by concurrent allocators
	closed    atomic.Bool

	offHeap  bool
	mapping  *mmap.Mapping
	acquirer MemoryAcquirer
	reserved int64
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithMemoryAcquirer sets the memory acquirer for the arena.
// The whole block is acquired up front and released by Close.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// WithOffHeap places the block in an anonymous mapping outside the Go heap.
func WithOffHeap(enabled bool) Option {
	return func(a *Arena) {
		a.offHeap = enabled
	}
}

// New creates an Arena of capacity bytes split into pages of pageSize bytes.
// If pageSize <= 0, DefaultPageSize is used. Capacity is rounded down to a
// whole number of pages.
func New(pageSize, capacity int, opts ...Option) (*Arena, error) {
	return NewContext(context.Background(), pageSize, capacity, opts...)
}

// NewContext is New with a context for the memory acquirer.
func NewContext(ctx context.Context, pageSize, capacity int, opts ...Option) (*Arena, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < MinPageSize || pageSize%WordSize != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	pages := capacity / pageSize
	if pages < 2 {
		return nil, fmt.Errorf("%w: %d bytes holds %d pages of %d bytes", ErrInvalidCapacity, capacity, pages, pageSize)
	}
	if uint64(pages) > MaxPages {
		return nil, fmt.Errorf("%w: %d pages exceeds %d", ErrInvalidCapacity, pages, uint64(MaxPages))
	}

	a := &Arena{
		pageSize:  pageSize,
		pageWords: pageSize / WordSize,
		numPages:  uint32(pages), //nolint:gosec // bounded by MaxPages above
	}

	for _, opt := range opts {
		opt(a)
	}

	size := pages * pageSize
	if a.acquirer != nil {
		if err := a.acquirer.AcquireMemory(ctx, int64(size)); err != nil {
			return nil, err
		}
		a.reserved = int64(size)
	}

	if err := a.reserve(size); err != nil {
		if a.acquirer != nil {
			a.acquirer.ReleaseMemory(a.reserved)
		}
		return nil, err
	}

	// Reserve page 0 as null
	a.next.Store(1)

	return a, nil
}

func (a *Arena) reserve(size int) error {
	n := size / WordSize

	if !a.offHeap {
		a.words = mem.AllocAlignedWords(n)
		return nil
	}

	mapping, err := mmap.MapAnon(size)
	if err != nil {
		return fmt.Errorf("arena: map off-heap block: %w", err)
	}
	_ = mapping.Advise(mmap.AccessRandom)

	// The mapping is page aligned and atomic.Uint64 is exactly one word.
	a.words = unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&mapping.Bytes()[0])), n) //nolint:gosec // unsafe is required for off-heap words
	a.mapping = mapping
	return nil
}

// Alloc hands out the next free page. Fresh pages are zeroed.
func (a *Arena) Alloc() (PageID, error) {
	if a.closed.Load() {
		return NullPage, ErrClosed
	}

	for {
		cur := a.next.Load()
		if cur >= a.numPages {
			return NullPage, ErrArenaFull
		}
		if a.next.CompareAndSwap(cur, cur+1) {
			return PageID(cur), nil
		}
	}
}

// Page returns the words of a page previously returned by Alloc.
func (a *Arena) Page(id PageID) []atomic.Uint64 {
	off := int(id) * a.pageWords
	return a.words[off : off+a.pageWords : off+a.pageWords]
}

// Valid reports whether id refers to an allocated page.
func (a *Arena) Valid(id PageID) bool {
	return id != NullPage && uint32(id) < a.next.Load()
}

// PageSize returns the size of one page in bytes.
func (a *Arena) PageSize() int {
	return a.pageSize
}

// PageWords returns the number of 64-bit words in one page.
func (a *Arena) PageWords() int {
	return a.pageWords
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	allocated := uint64(a.next.Load()) - 1
	return Stats{
		PageSize:       a.pageSize,
		PagesTotal:     uint64(a.numPages) - 1,
		PagesAllocated: allocated,
		BytesReserved:  uint64(a.numPages) * uint64(a.pageSize),
		BytesUsed:      allocated * uint64(a.pageSize),
		OffHeap:        a.offHeap,
	}
}

// Usage returns the percentage of usable pages handed out.
func (a *Arena) Usage() float64 {
	stats := a.Stats()
	if stats.PagesTotal == 0 {
		return 0
	}
	return float64(stats.PagesAllocated) / float64(stats.PagesTotal) * 100
}

// Close releases the block.
//
// IMPORTANT: Do NOT call Close concurrently with Alloc or Page. Every page
// becomes invalid after Close. Close is idempotent.
func (a *Arena) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	a.words = nil

	var err error
	if a.mapping != nil {
		err = a.mapping.Close()
		a.mapping = nil
	}

	if a.acquirer != nil && a.reserved > 0 {
		a.acquirer.ReleaseMemory(a.reserved)
		a.reserved = 0
	}

	return err
}

func (a *Arena) String() string {
	stats := a.Stats()
	return fmt.Sprintf(
		"Arena{pageSize: %d, pages: %d/%d, reserved: %.2f MB, usage: %.1f%%, offHeap: %t}",
		stats.PageSize,
		stats.PagesAllocated,
		stats.PagesTotal,
		float64(stats.BytesReserved)/(1024*1024),
		a.Usage(),
		stats.OffHeap,
	)
}

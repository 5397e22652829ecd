package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the memory will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects memory to be accessed sequentially.
	AccessSequential
	// AccessRandom expects memory to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects memory to be accessed in the near future.
	AccessWillNeed
)

var (
	// ErrClosed is returned when attempting to use a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the requested size is not positive.
	ErrInvalidSize = errors.New("mmap: invalid size")
)

package olc

import (
	"sync/atomic"
	"unsafe"
)

const lockedBit = 1

// Version is a snapshot of a Lock word.
type Version uint64

// Locked reports whether the snapshot was taken while a writer held the lock.
func (v Version) Locked() bool {
	return v&lockedBit != 0
}

// Generation returns the number of completed exclusive sections.
func (v Version) Generation() uint64 {
	return uint64(v) >> 1
}

// Lock is a versioned optimistic lock. The zero value is unlocked at generation 0.
//
// A Lock is exactly one word so it can live inside arena pages (see At).
type Lock struct {
	word atomic.Uint64
}

// At views a page word as a Lock.
func At(word *atomic.Uint64) *Lock {
	return (*Lock)(unsafe.Pointer(word)) //nolint:gosec // Lock has the layout of atomic.Uint64
}

// Snapshot returns the current word. It never blocks and does not require the
// lock to be free.
func (l *Lock) Snapshot() Version {
	return Version(l.word.Load())
}

// Validate reports whether nothing changed since v was taken. A snapshot taken
// while the lock was held never validates.
func (l *Lock) Validate(v Version) bool {
	return !v.Locked() && Version(l.word.Load()) == v
}

// TryUpgrade takes the lock exclusively if the word still equals v.
func (l *Lock) TryUpgrade(v Version) bool {
	if v.Locked() {
		return false
	}
	return l.word.CompareAndSwap(uint64(v), uint64(v|lockedBit))
}

// Unlock releases exclusive access and advances the generation.
// It must only be called by the holder.
func (l *Lock) Unlock() {
	l.word.Add(1)
}

// IsLocked reports whether a writer currently holds the lock.
func (l *Lock) IsLocked() bool {
	return l.Snapshot().Locked()
}

// Package olc implements the versioned lock used for optimistic lock coupling.
//
// A Lock is a single 64-bit word holding a generation counter and a locked
// bit. Readers never wait: they take a Snapshot, read whatever they need, and
// Validate the snapshot afterwards. Writers upgrade a snapshot to exclusive
// access with TryUpgrade, which only succeeds if nobody touched the word since
// the snapshot was taken, and Unlock bumps the generation so that every
// snapshot taken before or during the write fails validation.
//
//	v := l.Snapshot()
//	x := readSomething()
//	if !l.Validate(v) {
//	    // restart the operation
//	}
//
// None of the methods block. A failed Validate or TryUpgrade is the
// caller's signal to restart, not an error.
package olc

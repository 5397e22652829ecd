package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Scramble returns the xxHash64 of v's little-endian bytes.
func Scramble(v uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return xxhash.Sum64(b[:])
}

package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
// Computing this once avoids repeated MakeTable calls.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
// Uses hardware acceleration when available (SSE4.2, ARM CRC).
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// EntryChecksum computes the checksum of one key/payload pair.
func EntryChecksum(key uint64, payload []byte) uint32 {
	var k [8]byte
	binary.LittleEndian.PutUint64(k[:], key)
	crc := crc32.Update(0, crc32cTable, k[:])
	return crc32.Update(crc, crc32cTable, payload)
}

// Digest is an order-independent checksum over a set of entries.
// The zero value is the digest of the empty set.
type Digest struct {
	Sum   uint32
	Count uint64
}

// Add folds one entry into the digest.
func (d *Digest) Add(key uint64, payload []byte) {
	d.Sum ^= EntryChecksum(key, payload)
	d.Count++
}

// Merge folds another digest into d.
func (d *Digest) Merge(o Digest) {
	d.Sum ^= o.Sum
	d.Count += o.Count
}

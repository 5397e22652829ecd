package workload

import (
	"encoding/binary"
	"math/rand/v2"
)

// NewRand returns a generator seeded from seed and stream. Workers use their
// index as stream so each draws an independent sequence.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream)) //nolint:gosec // benchmark data
}

// FillPayload fills dst with random bytes.
func FillPayload(r *rand.Rand, dst []byte) {
	var word [8]byte
	for len(dst) >= 8 {
		binary.LittleEndian.PutUint64(dst, r.Uint64())
		dst = dst[8:]
	}
	if len(dst) > 0 {
		binary.LittleEndian.PutUint64(word[:], r.Uint64())
		copy(dst, word[:])
	}
}

// Range is the half-open key interval [Begin, End).
type Range struct {
	Begin uint64
	End   uint64
}

// Len returns the number of keys in the range.
func (r Range) Len() uint64 {
	return r.End - r.Begin
}

// Partition splits [0, n) into at most parts contiguous ranges whose sizes
// differ by at most one. Empty ranges are omitted.
func Partition(n uint64, parts int) []Range {
	if parts < 1 {
		parts = 1
	}

	p := uint64(parts)
	size, rem := n/p, n%p

	ranges := make([]Range, 0, parts)
	var begin uint64
	for i := uint64(0); i < p; i++ {
		end := begin + size
		if i < rem {
			end++
		}
		if end > begin {
			ranges = append(ranges, Range{Begin: begin, End: end})
		}
		begin = end
	}
	return ranges
}

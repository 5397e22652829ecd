package testutil

import (
	"encoding/binary"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Shuffle permutes keys in place.
func (r *RNG) Shuffle(keys []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}

// SequentialKeys returns the keys [0, n) in ascending order.
func SequentialKeys(n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i)
	}
	return keys
}

// DistinctKeys returns n distinct random keys in random order.
func (r *RNG) DistinctKeys(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint64]struct{}, n)
	keys := make([]uint64, 0, n)
	for len(keys) < n {
		k := r.rand.Uint64()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// FillPayload fills dst with random bytes.
func (r *RNG) FillPayload(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(dst)
}

// UniformPayload returns a payload of size bytes in which every 8-byte word
// holds the same random non-zero value. A reader that sees a mixture of two
// such payloads can tell with IsUniform.
func (r *RNG) UniformPayload(size int) []byte {
	r.mu.Lock()
	v := r.rand.Uint64() | 1
	r.mu.Unlock()

	return RepeatWord(v, size)
}

// RepeatWord returns size bytes holding v in every 8-byte word, little endian.
// A trailing partial word holds the low bytes of v.
func RepeatWord(v uint64, size int) []byte {
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], v)

	p := make([]byte, size)
	for i := range p {
		p[i] = word[i%8]
	}
	return p
}

// IsUniform reports whether every 8-byte word of p is identical.
func IsUniform(p []byte) bool {
	for i := 8; i < len(p); i++ {
		if p[i] != p[i%8] {
			return false
		}
	}
	return true
}

// KeyPayload derives a payload of size bytes from key. Distinct keys give
// distinct payloads as long as size >= 8.
func KeyPayload(key uint64, size int) []byte {
	return RepeatWord(key*0x9E3779B97F4A7C15+1, size)
}

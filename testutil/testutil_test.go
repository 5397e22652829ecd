package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctKeys(t *testing.T) {
	rng := NewRNG(4711)

	keys := rng.DistinctKeys(1000)
	require.Len(t, keys, 1000)

	seen := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup)
		seen[k] = struct{}{}
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(42)
	a := rng.Uint64()
	rng.Reset()
	assert.Equal(t, a, rng.Uint64())
	assert.Equal(t, int64(42), rng.Seed())
}

func TestShuffleKeepsKeys(t *testing.T) {
	rng := NewRNG(7)

	keys := SequentialKeys(100)
	rng.Shuffle(keys)

	sum := uint64(0)
	for _, k := range keys {
		sum += k
	}
	assert.Equal(t, uint64(99*100/2), sum)
}

func TestUniformPayload(t *testing.T) {
	rng := NewRNG(1)

	for _, size := range []int{1, 8, 12, 64} {
		p := rng.UniformPayload(size)
		assert.Len(t, p, size)
		assert.True(t, IsUniform(p))
	}

	a := RepeatWord(0x0101010101010101, 16)
	b := RepeatWord(0x0202020202020202, 16)
	mixed := append(a[:8:8], b[8:]...)
	assert.False(t, IsUniform(mixed))
}

func TestKeyPayload(t *testing.T) {
	assert.Equal(t, KeyPayload(5, 8), KeyPayload(5, 8))
	assert.NotEqual(t, KeyPayload(5, 8), KeyPayload(6, 8))
	assert.Len(t, KeyPayload(5, 12), 12)
}

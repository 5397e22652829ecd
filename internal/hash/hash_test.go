package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Known answer for the Castagnoli polynomial.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
}

func TestEntryChecksum(t *testing.T) {
	a := EntryChecksum(1, []byte("payload"))
	assert.Equal(t, a, EntryChecksum(1, []byte("payload")))
	assert.NotEqual(t, a, EntryChecksum(2, []byte("payload")))
	assert.NotEqual(t, a, EntryChecksum(1, []byte("Payload")))
}

func TestDigestIsOrderIndependent(t *testing.T) {
	var a, b Digest
	a.Add(1, []byte("x"))
	a.Add(2, []byte("y"))
	b.Add(2, []byte("y"))
	b.Add(1, []byte("x"))
	assert.Equal(t, a, b)

	var c, d Digest
	c.Add(1, []byte("x"))
	d.Add(2, []byte("y"))
	c.Merge(d)
	assert.Equal(t, a, c)
	assert.Equal(t, uint64(2), c.Count)
}

func TestScramble(t *testing.T) {
	assert.Equal(t, Scramble(42), Scramble(42))
	assert.NotEqual(t, Scramble(1), Scramble(2))
}

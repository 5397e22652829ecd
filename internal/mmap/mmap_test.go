package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(1 << 16)
	require.NoError(t, err)
	defer m.Close()

	data := m.Bytes()
	require.Len(t, data, 1<<16)
	assert.Equal(t, 1<<16, m.Size())

	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, b)
		}
	}

	data[0] = 0xAB
	data[len(data)-1] = 0xCD
	assert.Equal(t, byte(0xAB), m.Bytes()[0])
	assert.Equal(t, byte(0xCD), m.Bytes()[len(data)-1])

	assert.NoError(t, m.Advise(AccessRandom))
}

func TestMapAnon_InvalidSize(t *testing.T) {
	_, err := MapAnon(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestMapping_Close(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessSequential), ErrClosed)

	// Idempotent.
	assert.NoError(t, m.Close())
}

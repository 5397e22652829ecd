package btree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/olctree/internal/arena"
)

// Page word layout.
const (
	lockWord    = 0
	headerWord  = 1
	headerWords = 2

	kindMask   = 0xff
	countShift = 8
)

const (
	minLeafCapacity  = 2
	minInnerCapacity = 5
)

// ErrInvalidLayout is returned when a page cannot hold enough entries.
var ErrInvalidLayout = errors.New("btree: page too small for payload")

type kind uint8

const (
	kindNone kind = iota
	kindLeaf
	kindInner
)

func (k kind) String() string {
	switch k {
	case kindLeaf:
		return "leaf"
	case kindInner:
		return "inner"
	default:
		return "none"
	}
}

// layout is the geometry shared by every page of a tree.
type layout struct {
	pageWords    int
	payloadSize  int // bytes
	payloadWords int

	leafCap  int // maxEntriesLeaf
	innerCap int // maxEntriesInner; children use the same array length

	leafPayloadBase int
	innerChildBase  int
}

func newLayout(pageSize, payloadSize int) (layout, error) {
	if payloadSize <= 0 {
		return layout{}, fmt.Errorf("%w: payload size %d", ErrInvalidLayout, payloadSize)
	}

	pageWords := pageSize / arena.WordSize
	payloadWords := (payloadSize + arena.WordSize - 1) / arena.WordSize
	usable := pageWords - headerWords

	// Both capacities leave one slot unused.
	l := layout{
		pageWords:    pageWords,
		payloadSize:  payloadSize,
		payloadWords: payloadWords,
		leafCap:      usable/(1+payloadWords) - 1,
		innerCap:     usable/2 - 1,
	}
	l.leafPayloadBase = headerWords + l.leafCap
	l.innerChildBase = headerWords + l.innerCap

	if l.leafCap < minLeafCapacity {
		return layout{}, fmt.Errorf("%w: %d byte pages hold %d entries of %d bytes", ErrInvalidLayout, pageSize, l.leafCap, payloadSize)
	}
	if l.innerCap < minInnerCapacity {
		return layout{}, fmt.Errorf("%w: %d byte pages hold %d separators", ErrInvalidLayout, pageSize, l.innerCap)
	}

	return l, nil
}

package btree

import (
	"math"
	"slices"
)

// batch holds the entries copied out of one leaf.
type batch struct {
	keys     []uint64
	payloads []byte
	size     int
}

func (b *batch) reset() {
	b.keys = b.keys[:0]
	b.payloads = b.payloads[:0]
}

func (b *batch) payload(i int) []byte {
	return b.payloads[i*b.size : (i+1)*b.size : (i+1)*b.size]
}

// Scan calls visit for every entry with key >= start in ascending key order
// until visit returns false.
//
// Scan is a sequence of bounded lookups: each step copies one leaf under
// validation and continues after that leaf's upper fence. Entries inserted
// concurrently may or may not be seen, but every visited entry was present
// in the tree at the time its leaf was read. The payload slice passed to
// visit is reused; copy it to retain it.
func (t *Tree) Scan(start uint64, visit func(key uint64, payload []byte) bool) {
	b := batch{size: t.layout.payloadSize}

	for {
		next, more := t.scanStep(start, &b)

		for i, key := range b.keys {
			if !visit(key, b.payload(i)) {
				return
			}
		}

		if !more {
			return
		}
		start = next
	}
}

func (t *Tree) scanStep(start uint64, b *batch) (next uint64, more bool) {
	for {
		next, more, ok := t.scanLeaf(start, b)
		if ok {
			return next, more
		}
		t.restart()
	}
}

func (t *Tree) scanLeaf(start uint64, b *batch) (next uint64, more, ok bool) {
	b.reset()

	d, ok := t.descend(start)
	if !ok {
		return 0, false, false
	}

	leaf := d.leaf
	count := leaf.count()
	pos, ok := leaf.lowerBound(start, count, t.layout.leafCap)
	if !ok {
		return 0, false, false
	}

	for i := pos; i < count; i++ {
		b.keys = append(b.keys, leaf.key(i))
		off := len(b.payloads)
		b.payloads = slices.Grow(b.payloads, b.size)[:off+b.size]
		leaf.readPayload(i, b.payloads[off:])
	}

	if !leaf.lock().Validate(d.version) {
		return 0, false, false
	}

	if !d.hasFence || d.fence == math.MaxUint64 {
		return 0, false, true
	}
	return d.fence + 1, true, true
}

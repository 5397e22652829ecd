package btree

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/hupe1980/olctree/internal/arena"
	"github.com/hupe1980/olctree/internal/olc"
)

// node is a typed view of one arena page. It is cheap to copy.
//
// Every accessor is atomic. Mutators must only be called by the holder of the
// node's lock, or on a page that has not been published yet.
type node struct {
	id   arena.PageID
	page []atomic.Uint64
	l    *layout
}

func (n node) lock() *olc.Lock {
	return olc.At(&n.page[lockWord])
}

func (n node) kind() kind {
	return kind(n.page[headerWord].Load() & kindMask)
}

func (n node) count() int {
	return int(n.page[headerWord].Load() >> countShift)
}

func (n node) setHeader(k kind, count int) {
	n.page[headerWord].Store(uint64(count)<<countShift | uint64(k))
}

func (n node) setCount(count int) {
	n.setHeader(n.kind(), count)
}

func (n node) key(i int) uint64 {
	return n.page[headerWords+i].Load()
}

func (n node) setKey(i int, key uint64) {
	n.page[headerWords+i].Store(key)
}

func (n node) child(i int) arena.PageID {
	return arena.PageID(n.page[n.l.innerChildBase+i].Load())
}

func (n node) setChild(i int, id arena.PageID) {
	n.page[n.l.innerChildBase+i].Store(uint64(id))
}

// lowerBound returns the position of key, or of the first greater key, among
// the first count keys. It reports false when count cannot be right for a node
// of the given capacity, which only happens while reading a node that is being
// modified.
func (n node) lowerBound(key uint64, count, capacity int) (int, bool) {
	if count < 0 || count > capacity {
		return 0, false
	}

	lo, hi := 0, count
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if n.key(mid) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, true
}

func (n node) payloadWord(i, w int) *atomic.Uint64 {
	return &n.page[n.l.leafPayloadBase+i*n.l.payloadWords+w]
}

// readPayload copies the payload of entry i into dst word by word.
func (n node) readPayload(i int, dst []byte) {
	var buf [arena.WordSize]byte
	for w := 0; w < n.l.payloadWords; w++ {
		off := w * arena.WordSize
		if off >= len(dst) {
			return
		}
		v := n.payloadWord(i, w).Load()
		if off+arena.WordSize <= len(dst) {
			binary.LittleEndian.PutUint64(dst[off:], v)
			continue
		}
		binary.LittleEndian.PutUint64(buf[:], v)
		copy(dst[off:], buf[:])
	}
}

func (n node) writePayload(i int, src []byte) {
	var buf [arena.WordSize]byte
	for w := 0; w < n.l.payloadWords; w++ {
		off := w * arena.WordSize
		if off+arena.WordSize <= len(src) {
			n.payloadWord(i, w).Store(binary.LittleEndian.Uint64(src[off:]))
			continue
		}
		buf = [arena.WordSize]byte{}
		if off < len(src) {
			copy(buf[:], src[off:])
		}
		n.payloadWord(i, w).Store(binary.LittleEndian.Uint64(buf[:]))
	}
}

func (n node) movePayload(dst int, from node, src int) {
	for w := 0; w < n.l.payloadWords; w++ {
		n.payloadWord(dst, w).Store(from.payloadWord(src, w).Load())
	}
}

// leafInsert inserts or overwrites key. The caller holds the lock and the
// leaf has room. It reports whether a new entry was added.
func (n node) leafInsert(key uint64, payload []byte) bool {
	count := n.count()
	pos, _ := n.lowerBound(key, count, n.l.leafCap)

	if pos < count && n.key(pos) == key {
		n.writePayload(pos, payload)
		return false
	}

	for i := count; i > pos; i-- {
		n.setKey(i, n.key(i-1))
		n.movePayload(i, n, i-1)
	}
	n.setKey(pos, key)
	n.writePayload(pos, payload)
	n.setCount(count + 1)
	return true
}

// leafSplit moves the upper half of the entries into the unpublished page
// right and returns the separator: the last key that stays on the left.
func (n node) leafSplit(right node) uint64 {
	count := n.count()
	moved := count - count/2
	keep := count - moved

	for i := 0; i < moved; i++ {
		right.setKey(i, n.key(keep+i))
		right.movePayload(i, n, keep+i)
	}
	right.setHeader(kindLeaf, moved)
	n.setCount(keep)

	return n.key(keep - 1)
}

// innerInsert adds separator sep with child to its right. The caller holds
// the lock and count < innerCap-1.
func (n node) innerInsert(sep uint64, child arena.PageID) {
	count := n.count()
	pos, _ := n.lowerBound(sep, count, n.l.innerCap)

	for i := count; i > pos; i-- {
		n.setKey(i, n.key(i-1))
	}
	for i := count + 1; i > pos+1; i-- {
		n.setChild(i, n.child(i-1))
	}
	n.setKey(pos, sep)
	n.setChild(pos+1, child)
	n.setCount(count + 1)
}

// innerSplit moves the upper half into the unpublished page right and
// promotes the middle key, which stays in neither node.
func (n node) innerSplit(right node) uint64 {
	count := n.count()
	moved := count - count/2
	keep := count - moved - 1
	sep := n.key(keep)

	for i := 0; i < moved; i++ {
		right.setKey(i, n.key(keep+1+i))
	}
	for i := 0; i <= moved; i++ {
		right.setChild(i, n.child(keep+1+i))
	}
	right.setHeader(kindInner, moved)
	n.setCount(keep)

	return sep
}

// initRoot turns an unpublished page into an inner node with one separator.
func (n node) initRoot(sep uint64, left, right arena.PageID) {
	n.setKey(0, sep)
	n.setChild(0, left)
	n.setChild(1, right)
	n.setHeader(kindInner, 1)
}

package btree

import (
	"github.com/hupe1980/olctree/internal/olc"
)

// descent is the result of an optimistic root-to-leaf walk.
type descent struct {
	leaf    node
	version olc.Version

	// fence is the smallest separator above the leaf: every key in the leaf
	// is <= fence. hasFence is false for the rightmost leaf.
	fence    uint64
	hasFence bool
}

// descend walks to the leaf responsible for key holding only snapshots. The
// root slot is treated as the parent of the root. On success the path up to
// the leaf has been validated; the leaf itself has not.
func (t *Tree) descend(key uint64) (descent, bool) {
	var d descent

	parent := &t.rootLock
	pv := parent.Snapshot()
	n := t.rootNode()
	v := n.lock().Snapshot()

	for {
		if !parent.Validate(pv) {
			return d, false
		}

		switch n.kind() {
		case kindLeaf:
			d.leaf, d.version = n, v
			return d, true
		case kindInner:
		default:
			return d, false
		}

		count := n.count()
		pos, ok := n.lowerBound(key, count, t.layout.innerCap)
		if !ok {
			return d, false
		}
		if pos < count {
			d.fence, d.hasFence = n.key(pos), true
		}
		child := n.child(pos)
		if !n.lock().Validate(v) {
			return d, false
		}

		parent, pv = n.lock(), v
		n = t.node(child)
		v = n.lock().Snapshot()
	}
}

// Lookup copies the payload stored under key into dst and reports whether the
// key exists. dst may be nil to test for presence only; otherwise it should
// be PayloadSize() bytes long.
func (t *Tree) Lookup(key uint64, dst []byte) bool {
	for {
		found, ok := t.lookup(key, dst)
		if ok {
			return found
		}
		t.restart()
	}
}

func (t *Tree) lookup(key uint64, dst []byte) (found, ok bool) {
	d, ok := t.descend(key)
	if !ok {
		return false, false
	}

	leaf := d.leaf
	count := leaf.count()
	pos, ok := leaf.lowerBound(key, count, t.layout.leafCap)
	if !ok {
		return false, false
	}

	if pos < count && leaf.key(pos) == key {
		// Copy first, validate after; a failed validation discards the copy.
		leaf.readPayload(pos, dst)
		found = true
	}

	if !leaf.lock().Validate(d.version) {
		return false, false
	}
	return found, true
}

package btree

import (
	"github.com/hupe1980/olctree/internal/olc"
)

// Insert stores payload under key, replacing any previous payload. payload
// should be PayloadSize() bytes long; shorter payloads are zero padded.
//
// Conflicts with concurrent writers are retried internally. The only error is
// arena exhaustion, in which case the tree is left unchanged.
func (t *Tree) Insert(key uint64, payload []byte) error {
	for {
		done, err := t.insert(key, payload)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		t.restart()
	}
}

// insert makes one attempt. It returns false when the attempt has to be
// restarted, either because of a conflict or because it split a node.
func (t *Tree) insert(key uint64, payload []byte) (bool, error) {
	var (
		parent     = &t.rootLock
		pv         = parent.Snapshot()
		parentNode node
		hasParent  bool
	)

	n := t.rootNode()
	v := n.lock().Snapshot()

	for n.kind() == kindInner {
		count := n.count()

		if count == t.layout.innerCap-1 {
			// Split eagerly so that the parent always has room for a separator.
			return false, t.lockedSplit(parent, pv, parentNode, hasParent, n, v)
		}

		if !parent.Validate(pv) {
			return false, nil
		}

		pos, ok := n.lowerBound(key, count, t.layout.innerCap)
		if !ok {
			return false, nil
		}
		child := n.child(pos)
		if !n.lock().Validate(v) {
			return false, nil
		}

		parent, pv = n.lock(), v
		parentNode, hasParent = n, true
		n = t.node(child)
		v = n.lock().Snapshot()
	}

	if n.kind() != kindLeaf {
		return false, nil
	}

	if !parent.TryUpgrade(pv) {
		return false, nil
	}
	defer parent.Unlock()

	if !n.lock().TryUpgrade(v) {
		return false, nil
	}
	defer n.lock().Unlock()

	if n.count() >= t.layout.leafCap {
		return false, t.split(parentNode, hasParent, n)
	}

	if t.injectConflict() {
		return false, nil
	}

	if n.leafInsert(key, payload) {
		t.entries.Add(1)
	}
	return true, nil
}

// lockedSplit upgrades the parent (or root slot) and n, then splits n.
func (t *Tree) lockedSplit(parent *olc.Lock, pv olc.Version, parentNode node, hasParent bool, n node, v olc.Version) error {
	if !parent.TryUpgrade(pv) {
		return nil
	}
	defer parent.Unlock()

	if !n.lock().TryUpgrade(v) {
		return nil
	}
	defer n.lock().Unlock()

	return t.split(parentNode, hasParent, n)
}

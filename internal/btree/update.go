package btree

// Update applies fn to the payload stored under key and reports whether the
// key exists. fn runs while the leaf is locked and must not call back into the
// tree; the slice it receives is only valid for the duration of the call.
func (t *Tree) Update(key uint64, fn func(payload []byte)) bool {
	buf := make([]byte, t.layout.payloadSize)
	for {
		found, ok := t.update(key, fn, buf)
		if ok {
			return found
		}
		t.restart()
	}
}

func (t *Tree) update(key uint64, fn func([]byte), buf []byte) (found, ok bool) {
	d, ok := t.descend(key)
	if !ok {
		return false, false
	}

	// Only the leaf's content changes, so the parent stays unlocked.
	leaf := d.leaf
	if !leaf.lock().TryUpgrade(d.version) {
		return false, false
	}
	defer leaf.lock().Unlock()

	count := leaf.count()
	pos, _ := leaf.lowerBound(key, count, t.layout.leafCap)
	if pos >= count || leaf.key(pos) != key {
		return false, true
	}

	leaf.readPayload(pos, buf)
	fn(buf)
	leaf.writePayload(pos, buf)
	return true, true
}

package btree

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/hupe1980/olctree/internal/arena"
	"github.com/hupe1980/olctree/internal/olc"
)

const (
	// DefaultPayloadSize is the default payload size in bytes.
	DefaultPayloadSize = 8
)

// ErrInvalidConflictRate is returned for a ConflictRate outside [0, 1).
var ErrInvalidConflictRate = errors.New("btree: conflict rate must be in [0, 1)")

// Options represents the options for configuring a Tree.
type Options struct {
	// PayloadSize is the size of every payload in bytes.
	PayloadSize int

	// ConflictRate is the probability that an insert which already holds its
	// leaf restarts anyway. Zero disables the injection; tests raise it to
	// exercise the restart loop.
	ConflictRate float64
}

// DefaultOptions contains the default options for a Tree.
var DefaultOptions = Options{
	PayloadSize: DefaultPayloadSize,
}

// Stats is a point-in-time view of a tree.
type Stats struct {
	Entries       uint64
	Restarts      uint64
	Height        int
	LeafNodes     uint64
	InnerNodes    uint64
	LeafCapacity  int
	InnerCapacity int
	PayloadSize   int
	Arena         arena.Stats
}

// Tree is a concurrent B+tree over uint64 keys and fixed-size payloads.
type Tree struct {
	// Root slot: the id of the root page and the lock that guards its identity.
	rootLock olc.Lock
	root     atomic.Uint32

	_ cpu.CacheLinePad

	// Diagnostics
	restarts atomic.Uint64
	entries  atomic.Uint64
	height   atomic.Int32
	leaves   atomic.Uint64
	inners   atomic.Uint64

	_ cpu.CacheLinePad

	arena  *arena.Arena
	layout layout
	opts   Options
}

// New creates an empty tree whose nodes live in a.
// The arena must not be shared with another tree.
func New(a *arena.Arena, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ConflictRate < 0 || opts.ConflictRate >= 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConflictRate, opts.ConflictRate)
	}

	l, err := newLayout(a.PageSize(), opts.PayloadSize)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		arena:  a,
		layout: l,
		opts:   opts,
	}

	root, err := t.allocNode()
	if err != nil {
		return nil, fmt.Errorf("btree: allocate root: %w", err)
	}
	root.setHeader(kindLeaf, 0)
	t.leaves.Add(1)
	t.root.Store(uint32(root.id))
	t.height.Store(1)

	return t, nil
}

func (t *Tree) node(id arena.PageID) node {
	return node{id: id, page: t.arena.Page(id), l: &t.layout}
}

func (t *Tree) rootNode() node {
	return t.node(arena.PageID(t.root.Load()))
}

func (t *Tree) allocNode() (node, error) {
	id, err := t.arena.Alloc()
	if err != nil {
		return node{}, err
	}
	return t.node(id), nil
}

// split divides n and links the new right sibling into parent, or into a new
// root when n is the root. The caller holds n's lock and the parent's (or the
// root slot's). Pages are allocated before anything is modified, so an
// exhausted arena leaves the tree as it was.
func (t *Tree) split(parent node, hasParent bool, n node) error {
	right, err := t.allocNode()
	if err != nil {
		return err
	}

	var root node
	if !hasParent {
		if root, err = t.allocNode(); err != nil {
			return err
		}
	}

	var sep uint64
	if n.kind() == kindLeaf {
		sep = n.leafSplit(right)
		t.leaves.Add(1)
	} else {
		sep = n.innerSplit(right)
		t.inners.Add(1)
	}

	if hasParent {
		parent.innerInsert(sep, right.id)
		return nil
	}

	t.makeRoot(root, sep, n.id, right.id)
	return nil
}

// makeRoot publishes a new root above left and right. The caller holds the
// root slot exclusively.
func (t *Tree) makeRoot(root node, sep uint64, left, right arena.PageID) {
	root.initRoot(sep, left, right)
	t.inners.Add(1)
	t.root.Store(uint32(root.id))
	t.height.Add(1)
}

func (t *Tree) restart() {
	t.restarts.Add(1)
}

func (t *Tree) injectConflict() bool {
	return t.opts.ConflictRate > 0 && rand.Float64() < t.opts.ConflictRate //nolint:gosec // fault injection, not security
}

// PayloadSize returns the payload size in bytes.
func (t *Tree) PayloadSize() int {
	return t.layout.payloadSize
}

// LeafCapacity returns the maximum number of entries in a leaf.
func (t *Tree) LeafCapacity() int {
	return t.layout.leafCap
}

// InnerCapacity returns the separator array length of an inner node.
// Inner nodes split eagerly once they hold InnerCapacity()-1 separators.
func (t *Tree) InnerCapacity() int {
	return t.layout.innerCap
}

// Restarts returns the number of restarted attempts so far. It never decreases.
func (t *Tree) Restarts() uint64 {
	return t.restarts.Load()
}

// Height returns the number of levels, 1 for a tree that is a single leaf.
func (t *Tree) Height() int {
	return int(t.height.Load())
}

// Stats returns tree statistics.
func (t *Tree) Stats() Stats {
	return Stats{
		Entries:       t.entries.Load(),
		Restarts:      t.restarts.Load(),
		Height:        t.Height(),
		LeafNodes:     t.leaves.Load(),
		InnerNodes:    t.inners.Load(),
		LeafCapacity:  t.layout.leafCap,
		InnerCapacity: t.layout.innerCap,
		PayloadSize:   t.layout.payloadSize,
		Arena:         t.arena.Stats(),
	}
}

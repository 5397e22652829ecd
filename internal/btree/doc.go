// Package btree implements an in-memory B+tree with Optimistic Lock Coupling.
//
// # Overview
//
// Every node is one fixed-size page from an arena.Arena. Word 0 of a page is
// the node's olc.Lock, word 1 its header (kind and entry count), the rest are
// keys followed by payload words (leaves) or child page ids (inner nodes).
// Pages are addressed by arena.PageID, never by pointer, and every word is
// read and written atomically.
//
// # Protocols
//
// Readers (Lookup, Scan) descend from the root holding nothing but version
// snapshots. After following a child link they validate the parent; before
// returning data they validate the leaf. Any failed validation restarts the
// operation from the root.
//
// Writers (Insert) descend the same way and upgrade two snapshots at the end:
// the parent's (or the root slot's, when the node is the root) and the
// target leaf's. Inner nodes that are one entry short of full are split on the
// way down, so a split never has to propagate upwards. Every split is
// followed by a restart.
//
// The root slot has its own lock. Replacing the root after a root split is
// done while holding it, so no traversal can act on a stale root.
//
// # Limitations
//
// There is no delete and pages are never reclaimed. Memory reclamation for a
// tree that also shrinks would need an epoch-based scheme on top of the arena.
package btree

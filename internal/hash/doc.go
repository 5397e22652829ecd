// Package hash provides the hashing utilities used by the workload driver.
//
// # Key Scrambling
//
// Scramble spreads the ranks produced by a Zipfian generator over the whole
// key space so that hot keys are not clustered in a few leaves:
//
//	key := hash.Scramble(rank) % n
//
// It is xxHash64 over the little-endian bytes of the rank.
//
// # Entry Checksums
//
// EntryChecksum is CRC32-Castagnoli over a key and its payload. Checksums of
// a set of entries are combined with XOR, which makes the digest independent
// of the order in which entries were written or scanned:
//
//	var d hash.Digest
//	d.Add(key, payload)
//	if d != expected { ... }
package hash

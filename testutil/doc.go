// Package testutil provides testing utilities for olctree.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and helpers for generating keys and
// payloads that can be checked without keeping a model around.
//
// # Keys
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.DistinctKeys(10_000)  // shuffled, no duplicates
//	rng.Shuffle(keys)
//
// # Payloads
//
//	p := testutil.KeyPayload(key, 8)    // deterministic, derived from key
//	q := rng.UniformPayload(64)         // every word the same random value
//	ok := testutil.IsUniform(q)
package testutil

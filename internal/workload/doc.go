// Package workload generates keys and payloads for benchmark drivers.
//
// Key generators draw from [0, n). Zipfian follows the Gray et al. method used
// by YCSB; ScrambledZipfian hashes its ranks so the hot keys are spread over
// the key space instead of sitting at the low end. A theta of zero selects a
// uniform generator.
//
// Generators are immutable after construction and safe for concurrent use;
// randomness comes from the *rand.Rand passed to Next, one per goroutine.
package workload

// Package ycsb drives a YCSB-style workload against an ordered key/value store.
//
// A run has up to four phases:
//
//  1. Load: workers insert keys [0, Tuples) with random payloads, each worker
//     owning one contiguous range.
//  2. Verify (optional): one ascending scan checks key order, checks that
//     every loaded key is present exactly once, and compares an
//     order-independent payload digest against the one computed while loading.
//  3. Scan (optional): workers look up every key of their range.
//  4. Transactions: for RunFor, workers draw keys from a uniform or scrambled
//     Zipfian distribution and either read or update them according to
//     ReadRatio.
//
// Each phase reports its elapsed time and throughput in millions of
// operations per second.
package ycsb

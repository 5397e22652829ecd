// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Provides cache-line aligned allocation on the Go heap. The arena uses it so
// that page boundaries coincide with cache lines and a node's lock word never
// shares a line with the tail of the previous page.
package mem

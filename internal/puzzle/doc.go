// Package puzzle holds the word-chain domain core:
//   - candidate and pool types
//   - normalization and rule predicates
//   - the candidate validation engine
//   - recency-derived banned sets
//   - the seeded deterministic shuffle
//
// Everything here is pure computation; persistence and transport live elsewhere.
package puzzle

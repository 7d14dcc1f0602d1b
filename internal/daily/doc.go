// Package daily binds exactly one puzzle to each UTC calendar date.
//
// Selection is deterministic (rotation by day index, no RNG) and race-safe:
// correctness under concurrent first-requests-of-the-day rests entirely on
// the ledger's atomic insert-if-absent primitive, never on in-process locks.
package daily

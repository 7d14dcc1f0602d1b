// Package storage persists the puzzle pool and the daily assignment ledger.
//
// Two drivers:
//   - sqlite (default): single-file database, WAL mode
//   - file: append-only JSON Lines journals, no external dependencies
//
// The ledger write path is the only shared mutable resource in the system;
// both drivers implement insert-if-absent atomically and return the
// committed row, so concurrent first-requests-of-the-day converge on one
// canonical puzzle per date.
package storage

package storage

import (
	"context"
	"time"

	"wordchain/internal/puzzle"
)

// Config configures storage.
//
// Driver values:
//   - "sqlite" (or empty): SQLite database file
//   - "file": dependency-free file backend (jsonl journals)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API consumed by the scheduler and the generation
// pipeline. Daily assignment rows are terminal: there is deliberately no
// update or delete operation for them.
type Store interface {
	// InsertPuzzle appends an approved puzzle to the pool and returns its id.
	InsertPuzzle(ctx context.Context, p puzzle.Puzzle) (int64, error)
	// ListApprovedPuzzles returns the pool ordered by id ascending.
	ListApprovedPuzzles(ctx context.Context) ([]puzzle.Puzzle, error)
	// ListPuzzlesCreatedSince returns pool rows created at or after since.
	ListPuzzlesCreatedSince(ctx context.Context, since time.Time) ([]puzzle.Puzzle, error)
	GetPuzzle(ctx context.Context, id int64) (puzzle.Puzzle, bool, error)

	GetAssignment(ctx context.Context, dateKey string) (puzzleID int64, ok bool, err error)
	// InsertAssignmentIfAbsent atomically binds dateKey to puzzleID unless a
	// row already exists, and returns the puzzle id actually committed.
	InsertAssignmentIfAbsent(ctx context.Context, dateKey string, puzzleID int64) (int64, error)
	// ListAssignmentsBefore returns up to limit ledger rows with date keys
	// strictly before dateKey, most recent first.
	ListAssignmentsBefore(ctx context.Context, dateKey string, limit int) ([]puzzle.Assignment, error)

	Close() error
}

package daily

import (
	"context"
	"fmt"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

// PoolStore lists the approved puzzle universe, ordered by id ascending.
type PoolStore interface {
	ListApprovedPuzzles(ctx context.Context) ([]puzzle.Puzzle, error)
}

// Ledger is the shared date->puzzle binding. InsertAssignmentIfAbsent must be
// atomic and return the committed puzzle id, which may differ from the
// proposal when a concurrent writer won the race.
type Ledger interface {
	GetAssignment(ctx context.Context, dateKey string) (puzzleID int64, ok bool, err error)
	InsertAssignmentIfAbsent(ctx context.Context, dateKey string, puzzleID int64) (committedID int64, err error)
}

// History resolves recent ledger rows for the similarity guard.
type History interface {
	ListAssignmentsBefore(ctx context.Context, dateKey string, limit int) ([]puzzle.Assignment, error)
	GetPuzzle(ctx context.Context, id int64) (puzzle.Puzzle, bool, error)
}

// Config tunes the scheduler.
type Config struct {
	// WindowDays is the rolling similarity-guard window. Zero means the
	// default of 30 days.
	WindowDays int
	// LaunchDateKey anchors user-facing day numbering. Empty means no
	// ordinal is exposed.
	LaunchDateKey string
}

const defaultWindowDays = 30

func (c Config) windowDays() int {
	if c.WindowDays <= 0 {
		return defaultWindowDays
	}
	return c.WindowDays
}

// Result describes a committed daily assignment.
type Result struct {
	PuzzleID int64
	// UsedFallback is set when every pool entry conflicted with the banned
	// window and the first rotated entry was taken regardless.
	UsedFallback bool
	// DayNumber is the user-facing ordinal, 0 when no launch date is set.
	DayNumber int
}

// Scheduler assigns puzzles to dates. It is stateless between calls; all
// shared state lives in the ledger.
type Scheduler struct {
	cfg    Config
	pool   PoolStore
	ledger Ledger
	hist   History
	log    logx.Logger
}

func NewScheduler(cfg Config, pool PoolStore, ledger Ledger, hist History, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{cfg: cfg, pool: pool, ledger: ledger, hist: hist, log: log}
}

// Assign binds dateKey to a puzzle, or returns the existing binding. The
// ok result is false only when the pool is empty: an explicit no-puzzle
// outcome, not an error.
func (s *Scheduler) Assign(ctx context.Context, dateKey string) (Result, bool, error) {
	dayIdx, err := DayIndex(dateKey)
	if err != nil {
		return Result{}, false, err
	}

	// Idempotent fast path: a committed row is terminal, so skip all
	// banned-set work.
	if id, ok, err := s.ledger.GetAssignment(ctx, dateKey); err != nil {
		return Result{}, false, fmt.Errorf("ledger read: %w", err)
	} else if ok {
		return s.result(dateKey, id, false), true, nil
	}

	pool, err := s.pool.ListApprovedPuzzles(ctx)
	if err != nil {
		return Result{}, false, fmt.Errorf("pool list: %w", err)
	}
	if len(pool) == 0 {
		s.log.Warn("no approved puzzles in pool", logx.String("date", dateKey))
		return Result{}, false, nil
	}

	banned, err := s.bannedBefore(ctx, dateKey, dayIdx)
	if err != nil {
		return Result{}, false, err
	}

	selected, usedFallback := pick(pool, dayIdx, banned)

	committed, err := s.ledger.InsertAssignmentIfAbsent(ctx, dateKey, selected.ID)
	if err != nil {
		return Result{}, false, fmt.Errorf("ledger insert: %w", err)
	}
	if committed != selected.ID {
		// Lost the race; the committed row is the single canonical winner.
		s.log.Debug("assignment race resolved by re-read",
			logx.String("date", dateKey),
			logx.Int64("proposed", selected.ID),
			logx.Int64("committed", committed))
		return s.result(dateKey, committed, false), true, nil
	}

	if usedFallback {
		s.log.Warn("daily assignment used fallback; pool too small for window",
			logx.String("date", dateKey),
			logx.Int64("puzzle_id", committed),
			logx.Int("pool_size", len(pool)))
	}
	return s.result(dateKey, committed, usedFallback), true, nil
}

// pick scans the pool starting at dayIdx mod len(pool), wrapping, and takes
// the first entry disjoint from the banned links and endpoints. If every
// entry conflicts it falls back to the first rotated entry so a date is
// never left unassigned.
func pick(pool []puzzle.Puzzle, dayIdx int, banned puzzle.BannedSet) (puzzle.Puzzle, bool) {
	start := dayIdx % len(pool)
	if start < 0 {
		start += len(pool)
	}
	for off := 0; off < len(pool); off++ {
		p := pool[(start+off)%len(pool)]
		if conflicts(p, banned) {
			continue
		}
		return p, false
	}
	return pool[start], true
}

func conflicts(p puzzle.Puzzle, banned puzzle.BannedSet) bool {
	for _, l := range p.NormalizedLinks() {
		if _, ok := banned.Links[l]; ok {
			return true
		}
	}
	first, last := p.Endpoints()
	if _, ok := banned.Endpoints[first]; ok && first != "" {
		return true
	}
	if _, ok := banned.Endpoints[last]; ok && last != "" {
		return true
	}
	return false
}

// bannedBefore derives the similarity-guard set from the puzzles assigned
// inside the trailing calendar window ending the day before dateKey. The
// ledger may have gaps (daemon downtime), so rows are filtered by date
// distance; the count limit is only a fetch cap, since every in-window row
// is more recent than any out-of-window one.
func (s *Scheduler) bannedBefore(ctx context.Context, dateKey string, dayIdx int) (puzzle.BannedSet, error) {
	rows, err := s.hist.ListAssignmentsBefore(ctx, dateKey, s.cfg.windowDays())
	if err != nil {
		return puzzle.BannedSet{}, fmt.Errorf("ledger history: %w", err)
	}
	recent := make([]puzzle.Puzzle, 0, len(rows))
	for _, row := range rows {
		rowIdx, err := DayIndex(row.DateKey)
		if err != nil || dayIdx-rowIdx > s.cfg.windowDays() {
			continue
		}
		p, ok, err := s.hist.GetPuzzle(ctx, row.PuzzleID)
		if err != nil {
			return puzzle.BannedSet{}, fmt.Errorf("resolve puzzle %d: %w", row.PuzzleID, err)
		}
		if !ok {
			// Ledger rows are never deleted but pool rows may predate this
			// database; skip unresolvable ids rather than failing the day.
			s.log.Warn("assignment references missing puzzle",
				logx.String("date", row.DateKey),
				logx.Int64("puzzle_id", row.PuzzleID))
			continue
		}
		recent = append(recent, p)
	}
	return puzzle.CollectBanned(recent, puzzle.SoftAvoidWordCap), nil
}

func (s *Scheduler) result(dateKey string, id int64, usedFallback bool) Result {
	n, _ := DayNumber(dateKey, s.cfg.LaunchDateKey)
	return Result{PuzzleID: id, UsedFallback: usedFallback, DayNumber: n}
}

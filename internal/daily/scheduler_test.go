package daily

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

// memStore is an in-memory pool + ledger + history fake. Its ledger insert
// has the same first-writer-wins semantics as the real drivers.
type memStore struct {
	mu       sync.Mutex
	puzzles  []puzzle.Puzzle
	ledger   map[string]int64
	poolErr  error
	poolHits int
}

func newMemStore(puzzles ...puzzle.Puzzle) *memStore {
	return &memStore{puzzles: puzzles, ledger: map[string]int64{}}
}

func (m *memStore) ListApprovedPuzzles(ctx context.Context) ([]puzzle.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poolHits++
	if m.poolErr != nil {
		return nil, m.poolErr
	}
	return append([]puzzle.Puzzle(nil), m.puzzles...), nil
}

func (m *memStore) GetAssignment(ctx context.Context, dateKey string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ledger[dateKey]
	return id, ok, nil
}

func (m *memStore) InsertAssignmentIfAbsent(ctx context.Context, dateKey string, puzzleID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.ledger[dateKey]; ok {
		return existing, nil
	}
	m.ledger[dateKey] = puzzleID
	return puzzleID, nil
}

func (m *memStore) ListAssignmentsBefore(ctx context.Context, dateKey string, limit int) ([]puzzle.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []puzzle.Assignment
	for k, id := range m.ledger {
		if k < dateKey {
			out = append(out, puzzle.Assignment{DateKey: k, PuzzleID: id})
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetPuzzle(ctx context.Context, id int64) (puzzle.Puzzle, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.puzzles {
		if p.ID == id {
			return p, true, nil
		}
	}
	return puzzle.Puzzle{}, false, nil
}

func testPool(n int) []puzzle.Puzzle {
	pool := make([]puzzle.Puzzle, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, puzzle.Puzzle{
			ID: int64(i + 1),
			Chain: []string{
				fmt.Sprintf("Start%d", i), "Mid1", "Mid2", "Mid3", "Mid4", "Mid5", "Mid6", fmt.Sprintf("End%d", i),
			},
			Links: []string{
				fmt.Sprintf("link%d-0", i), fmt.Sprintf("link%d-1", i), fmt.Sprintf("link%d-2", i),
				fmt.Sprintf("link%d-3", i), fmt.Sprintf("link%d-4", i), fmt.Sprintf("link%d-5", i),
				fmt.Sprintf("link%d-6", i),
			},
		})
	}
	return pool
}

func newTestScheduler(store *memStore, cfg Config) *Scheduler {
	return NewScheduler(cfg, store, store, store, logx.Nop())
}

// dayIndex("2024-03-05") is 19787, so a 10-entry pool rotates to start at
// index 7 (puzzle id 8).
const rotationDate = "2024-03-05"

func TestAssignRotationStart(t *testing.T) {
	t.Parallel()
	store := newMemStore(testPool(10)...)
	s := newTestScheduler(store, Config{})

	res, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil || !ok {
		t.Fatalf("Assign: %v, ok=%v", err, ok)
	}
	if res.PuzzleID != 8 {
		t.Fatalf("rotation start: got puzzle %d, want 8", res.PuzzleID)
	}
	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
}

func TestAssignSkipsConflicting(t *testing.T) {
	t.Parallel()
	pool := testPool(10)
	store := newMemStore(pool...)
	// The previous day used puzzle 8; its links are inside the 30-day
	// window, so the rotated scan must skip it and land on puzzle 9.
	store.ledger["2024-03-04"] = 8
	s := newTestScheduler(store, Config{})

	res, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil || !ok {
		t.Fatalf("Assign: %v, ok=%v", err, ok)
	}
	if res.PuzzleID != 9 {
		t.Fatalf("guard scan: got puzzle %d, want 9", res.PuzzleID)
	}
	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
}

func TestAssignSkipsSharedEndpoint(t *testing.T) {
	t.Parallel()
	pool := testPool(10)
	// Puzzle 9 shares puzzle 8's start word; both must be skipped.
	pool[8].Chain[0] = pool[7].Chain[0]
	store := newMemStore(pool...)
	store.ledger["2024-03-04"] = 8
	s := newTestScheduler(store, Config{})

	res, _, err := s.Assign(context.Background(), rotationDate)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.PuzzleID != 10 {
		t.Fatalf("endpoint guard: got puzzle %d, want 10", res.PuzzleID)
	}
}

func TestAssignIgnoresStaleHistory(t *testing.T) {
	t.Parallel()
	store := newMemStore(testPool(10)...)
	// Puzzle 8 was assigned 64 days ago; the guard window is 30 calendar
	// days, so the rotation pick must still land on it even though the
	// ledger holds no newer rows.
	store.ledger["2024-01-01"] = 8
	s := newTestScheduler(store, Config{})

	res, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil || !ok {
		t.Fatalf("Assign: %v, ok=%v", err, ok)
	}
	if res.PuzzleID != 8 {
		t.Fatalf("stale assignment leaked into the window: got puzzle %d, want 8", res.PuzzleID)
	}
	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
}

func TestAssignWindowBoundary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		prior string // ledger date for puzzle 8
		want  int64
	}{
		// 2024-02-04 is exactly 30 days before 2024-03-05: still banned.
		{"last day inside window", "2024-02-04", 9},
		// 2024-02-03 is 31 days before: eligible again.
		{"first day outside window", "2024-02-03", 8},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newMemStore(testPool(10)...)
			store.ledger[tc.prior] = 8
			s := newTestScheduler(store, Config{})

			res, ok, err := s.Assign(context.Background(), rotationDate)
			if err != nil || !ok {
				t.Fatalf("Assign: %v, ok=%v", err, ok)
			}
			if res.PuzzleID != tc.want {
				t.Fatalf("prior on %s: got puzzle %d, want %d", tc.prior, res.PuzzleID, tc.want)
			}
		})
	}
}

func TestAssignFallbackWhenAllConflict(t *testing.T) {
	t.Parallel()
	// One-puzzle pool assigned yesterday: today conflicts but must still be
	// assigned (liveness beats the guard).
	pool := testPool(1)
	store := newMemStore(pool...)
	store.ledger["2024-03-04"] = 1
	s := newTestScheduler(store, Config{})

	res, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil || !ok {
		t.Fatalf("Assign: %v, ok=%v", err, ok)
	}
	if res.PuzzleID != 1 || !res.UsedFallback {
		t.Fatalf("fallback: got %+v", res)
	}
}

func TestAssignIdempotentFastPath(t *testing.T) {
	t.Parallel()
	store := newMemStore(testPool(10)...)
	store.ledger[rotationDate] = 3
	// The fast path must not touch the pool at all.
	store.poolErr = errors.New("pool must not be read")
	s := newTestScheduler(store, Config{})

	res, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil || !ok {
		t.Fatalf("Assign: %v, ok=%v", err, ok)
	}
	if res.PuzzleID != 3 {
		t.Fatalf("fast path returned %d, want 3", res.PuzzleID)
	}
}

func TestAssignEmptyPool(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	s := newTestScheduler(store, Config{})

	_, ok, err := s.Assign(context.Background(), rotationDate)
	if err != nil {
		t.Fatalf("empty pool must not error: %v", err)
	}
	if ok {
		t.Fatal("empty pool produced an assignment")
	}
}

func TestAssignConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	store := newMemStore(testPool(10)...)
	s := newTestScheduler(store, Config{})

	const callers = 16
	results := make([]int64, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			res, ok, err := s.Assign(context.Background(), rotationDate)
			if err != nil || !ok {
				t.Errorf("caller %d: %v ok=%v", i, err, ok)
				return
			}
			results[i] = res.PuzzleID
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("divergent winners: %v", results)
		}
	}
	if len(store.ledger) != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", len(store.ledger))
	}
}

func TestAssignDayNumber(t *testing.T) {
	t.Parallel()
	store := newMemStore(testPool(10)...)
	s := newTestScheduler(store, Config{LaunchDateKey: "2024-03-01"})

	res, _, err := s.Assign(context.Background(), rotationDate)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.DayNumber != 5 {
		t.Fatalf("day number = %d, want 5", res.DayNumber)
	}
}

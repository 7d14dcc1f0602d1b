package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

func testPuzzle(diff puzzle.Difficulty) puzzle.Puzzle {
	return puzzle.Puzzle{
		Difficulty: diff,
		Chain:      []string{"Key", "Chain", "Reaction", "Time", "Zone", "Defense", "Mechanism", "Failure"},
		Dummy:      []string{"Lock", "Bicycle", "Storm", "Garden", "Window", "Basket", "Signal", "Harbor", "Rocket", "Marble"},
		Links: []string{
			"keychain", "chain reaction", "reaction time", "time zone",
			"zone defense", "defense mechanism", "mechanism failure",
		},
		CreatedAt: time.Now().UTC(),
	}
}

// Both drivers must satisfy the same contract, so the suite runs once per
// driver against a throwaway directory.
func TestStoreContract(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"sqlite", "file"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			st, err := Open(Config{
				Driver:      driver,
				Path:        filepath.Join(t.TempDir(), "wordchain.db"),
				BusyTimeout: time.Second,
			}, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			t.Cleanup(func() { _ = st.Close() })
			runStoreContract(t, st)
		})
	}
}

func runStoreContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	// Pool round trip.
	id1, err := st.InsertPuzzle(ctx, testPuzzle(puzzle.DifficultyEasy))
	if err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}
	id2, err := st.InsertPuzzle(ctx, testPuzzle(puzzle.DifficultyHard))
	if err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}
	if id1 == id2 || id1 == 0 {
		t.Fatalf("bad ids %d, %d", id1, id2)
	}

	got, ok, err := st.GetPuzzle(ctx, id1)
	if err != nil || !ok {
		t.Fatalf("GetPuzzle(%d): ok=%v err=%v", id1, ok, err)
	}
	if got.ID != id1 || got.Difficulty != puzzle.DifficultyEasy {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Chain) != 8 || got.Chain[0] != "Key" {
		t.Fatalf("chain mismatch: %v", got.Chain)
	}
	if len(got.Links) != 7 || got.Links[1] != "chain reaction" {
		t.Fatalf("links mismatch: %v", got.Links)
	}

	if _, ok, err := st.GetPuzzle(ctx, 9999); err != nil || ok {
		t.Fatalf("missing puzzle: ok=%v err=%v", ok, err)
	}

	pool, err := st.ListApprovedPuzzles(ctx)
	if err != nil {
		t.Fatalf("ListApprovedPuzzles: %v", err)
	}
	if len(pool) != 2 || pool[0].ID != id1 || pool[1].ID != id2 {
		t.Fatalf("pool order: %+v", pool)
	}

	recent, err := st.ListPuzzlesCreatedSince(ctx, time.Now().Add(-time.Hour))
	if err != nil || len(recent) != 2 {
		t.Fatalf("recent window: n=%d err=%v", len(recent), err)
	}
	old, err := st.ListPuzzlesCreatedSince(ctx, time.Now().Add(time.Hour))
	if err != nil || len(old) != 0 {
		t.Fatalf("future window should be empty: n=%d err=%v", len(old), err)
	}

	// Ledger: first write wins, repeat attempts return the committed row.
	committed, err := st.InsertAssignmentIfAbsent(ctx, "2024-03-05", id1)
	if err != nil || committed != id1 {
		t.Fatalf("first insert: id=%d err=%v", committed, err)
	}
	committed, err = st.InsertAssignmentIfAbsent(ctx, "2024-03-05", id2)
	if err != nil || committed != id1 {
		t.Fatalf("conflicting insert must keep winner: id=%d err=%v", committed, err)
	}

	gotID, ok, err := st.GetAssignment(ctx, "2024-03-05")
	if err != nil || !ok || gotID != id1 {
		t.Fatalf("GetAssignment: id=%d ok=%v err=%v", gotID, ok, err)
	}
	if _, ok, err := st.GetAssignment(ctx, "2024-03-06"); err != nil || ok {
		t.Fatalf("unassigned day: ok=%v err=%v", ok, err)
	}

	if _, err := st.InsertAssignmentIfAbsent(ctx, "2024-03-06", id2); err != nil {
		t.Fatalf("second day: %v", err)
	}
	history, err := st.ListAssignmentsBefore(ctx, "2024-03-07", 30)
	if err != nil {
		t.Fatalf("ListAssignmentsBefore: %v", err)
	}
	if len(history) != 2 || history[0].DateKey != "2024-03-06" || history[1].DateKey != "2024-03-05" {
		t.Fatalf("history order: %+v", history)
	}
	limited, err := st.ListAssignmentsBefore(ctx, "2024-03-07", 1)
	if err != nil || len(limited) != 1 || limited[0].PuzzleID != id2 {
		t.Fatalf("limit: %+v err=%v", limited, err)
	}
	none, err := st.ListAssignmentsBefore(ctx, "2024-03-05", 30)
	if err != nil || len(none) != 0 {
		t.Fatalf("nothing before launch: %+v err=%v", none, err)
	}
}

func TestSQLiteCreatedSinceSubSecond(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "wordchain.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	// Fractional seconds: the row at .5s must sort before the .52s row even
	// though a trailing-zero-trimmed encoding would order them the other way.
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	early := testPuzzle(puzzle.DifficultyEasy)
	early.CreatedAt = base.Add(500 * time.Millisecond)
	late := testPuzzle(puzzle.DifficultyHard)
	late.CreatedAt = base.Add(520 * time.Millisecond)

	if _, err := st.InsertPuzzle(ctx, early); err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}
	lateID, err := st.InsertPuzzle(ctx, late)
	if err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}

	got, err := st.ListPuzzlesCreatedSince(ctx, base.Add(510*time.Millisecond))
	if err != nil {
		t.Fatalf("ListPuzzlesCreatedSince: %v", err)
	}
	if len(got) != 1 || got[0].ID != lateID {
		t.Fatalf("sub-second window: got %+v, want only puzzle %d", got, lateID)
	}
}

func TestFileStoreReplay(t *testing.T) {
	t.Parallel()
	cfg := Config{Driver: "file", Path: filepath.Join(t.TempDir(), "wordchain.db")}
	ctx := context.Background()

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := st.InsertPuzzle(ctx, testPuzzle(puzzle.DifficultyMedium))
	if err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}
	if _, err := st.InsertAssignmentIfAbsent(ctx, "2025-01-01", id); err != nil {
		t.Fatalf("InsertAssignmentIfAbsent: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and make sure the journals replayed, including ID continuity.
	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, ok, err := st.GetPuzzle(ctx, id)
	if err != nil || !ok || got.Difficulty != puzzle.DifficultyMedium {
		t.Fatalf("replayed puzzle: ok=%v err=%v %+v", ok, err, got)
	}
	gotID, ok, err := st.GetAssignment(ctx, "2025-01-01")
	if err != nil || !ok || gotID != id {
		t.Fatalf("replayed assignment: id=%d ok=%v err=%v", gotID, ok, err)
	}
	next, err := st.InsertPuzzle(ctx, testPuzzle(puzzle.DifficultyHard))
	if err != nil {
		t.Fatalf("InsertPuzzle after replay: %v", err)
	}
	if next != id+1 {
		t.Fatalf("expected id %d after replay, got %d", id+1, next)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("empty path accepted")
	}
}

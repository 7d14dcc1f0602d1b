package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.pool.jsonl   (append-only puzzle records)
//   - <prefix>.ledger.jsonl (append-only daily assignment journal)
//
// Both journals are replayed into memory on open. Insert-if-absent for the
// ledger is serialized by the store mutex; within one process that gives the
// same single-winner guarantee the sqlite primary key does.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	poolFile   *os.File
	ledgerFile *os.File

	puzzles map[int64]puzzle.Puzzle
	nextID  int64
	ledger  map[string]int64
}

type poolRecord struct {
	ID         int64    `json:"id"`
	Difficulty string   `json:"difficulty"`
	Chain      []string `json:"chain"`
	Dummy      []string `json:"dummy"`
	Links      []string `json:"links,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

type ledgerRecord struct {
	DateKey    string `json:"date_key"`
	PuzzleID   int64  `json:"puzzle_id"`
	AssignedAt string `json:"assigned_at"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	poolPath := prefix + ".pool.jsonl"
	ledgerPath := prefix + ".ledger.jsonl"

	st := &fileStore{
		log:     log,
		puzzles: map[int64]puzzle.Puzzle{},
		nextID:  1,
		ledger:  map[string]int64{},
	}
	if err := st.replayPool(poolPath); err != nil {
		return nil, err
	}
	if err := st.replayLedger(ledgerPath); err != nil {
		return nil, err
	}

	pf, err := os.OpenFile(poolPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	lf, err := os.OpenFile(ledgerPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = pf.Close()
		return nil, err
	}
	st.poolFile = pf
	st.ledgerFile = lf
	return st, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.poolFile != nil {
		err1 = s.poolFile.Close()
		s.poolFile = nil
	}
	if s.ledgerFile != nil {
		err2 = s.ledgerFile.Close()
		s.ledgerFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) InsertPuzzle(ctx context.Context, p puzzle.Puzzle) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poolFile == nil {
		return 0, errors.New("pool journal closed")
	}

	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	rec := poolRecord{
		ID:         p.ID,
		Difficulty: string(p.Difficulty),
		Chain:      p.Chain,
		Dummy:      p.Dummy,
		Links:      p.Links,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if err := json.NewEncoder(s.poolFile).Encode(rec); err != nil {
		return 0, err
	}
	s.puzzles[p.ID] = p
	s.nextID++
	return p.ID, nil
}

func (s *fileStore) ListApprovedPuzzles(ctx context.Context) ([]puzzle.Puzzle, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]puzzle.Puzzle, 0, len(s.puzzles))
	for _, p := range s.puzzles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fileStore) ListPuzzlesCreatedSince(ctx context.Context, since time.Time) ([]puzzle.Puzzle, error) {
	all, err := s.ListApprovedPuzzles(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fileStore) GetPuzzle(ctx context.Context, id int64) (puzzle.Puzzle, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[id]
	return p, ok, nil
}

func (s *fileStore) GetAssignment(ctx context.Context, dateKey string) (int64, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ledger[dateKey]
	return id, ok, nil
}

func (s *fileStore) InsertAssignmentIfAbsent(ctx context.Context, dateKey string, puzzleID int64) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledgerFile == nil {
		return 0, errors.New("ledger journal closed")
	}
	if existing, ok := s.ledger[dateKey]; ok {
		return existing, nil
	}
	rec := ledgerRecord{
		DateKey:    dateKey,
		PuzzleID:   puzzleID,
		AssignedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := json.NewEncoder(s.ledgerFile).Encode(rec); err != nil {
		return 0, err
	}
	s.ledger[dateKey] = puzzleID
	return puzzleID, nil
}

func (s *fileStore) ListAssignmentsBefore(ctx context.Context, dateKey string, limit int) ([]puzzle.Assignment, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []puzzle.Assignment
	for k, id := range s.ledger {
		if k < dateKey {
			out = append(out, puzzle.Assignment{DateKey: k, PuzzleID: id})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey > out[j].DateKey })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fileStore) replayPool(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec poolRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			s.log.Warn("skipping corrupt pool record", logx.Err(err))
			continue
		}
		if rec.ID <= 0 {
			continue
		}
		p := puzzle.Puzzle{
			ID:         rec.ID,
			Difficulty: puzzle.Difficulty(rec.Difficulty),
			Chain:      rec.Chain,
			Dummy:      rec.Dummy,
			Links:      rec.Links,
		}
		if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
			p.CreatedAt = t
		}
		s.puzzles[p.ID] = p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return sc.Err()
}

func (s *fileStore) replayLedger(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec ledgerRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			s.log.Warn("skipping corrupt ledger record", logx.Err(err))
			continue
		}
		if rec.DateKey == "" {
			continue
		}
		// First write wins on replay too; rows are terminal.
		if _, ok := s.ledger[rec.DateKey]; !ok {
			s.ledger[rec.DateKey] = rec.PuzzleID
		}
	}
	return sc.Err()
}

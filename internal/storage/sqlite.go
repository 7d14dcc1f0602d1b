package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"wordchain/internal/puzzle"
	logx "wordchain/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Timestamps are compared as strings in SQL, so the stored form must sort
// chronologically. RFC3339Nano trims trailing zeros (".5Z" sorts after
// ".52Z"); this layout pads the fraction to a fixed nine digits.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) InsertPuzzle(ctx context.Context, p puzzle.Puzzle) (int64, error) {
	chainJSON, err := json.Marshal(p.Chain)
	if err != nil {
		return 0, err
	}
	dummyJSON, err := json.Marshal(p.Dummy)
	if err != nil {
		return 0, err
	}
	var linksJSON any
	if len(p.Links) > 0 {
		b, err := json.Marshal(p.Links)
		if err != nil {
			return 0, err
		}
		linksJSON = string(b)
	}
	at := p.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO puzzles(difficulty, chain_json, dummy_json, links_json, approved, created_at)
		 VALUES(?,?,?,?,1,?)`,
		string(p.Difficulty), string(chainJSON), string(dummyJSON), linksJSON, at.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) ListApprovedPuzzles(ctx context.Context) ([]puzzle.Puzzle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, difficulty, chain_json, dummy_json, links_json, created_at
		 FROM puzzles WHERE approved = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPuzzles(rows)
}

func (s *sqliteStore) ListPuzzlesCreatedSince(ctx context.Context, since time.Time) ([]puzzle.Puzzle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, difficulty, chain_json, dummy_json, links_json, created_at
		 FROM puzzles WHERE created_at >= ? ORDER BY id ASC`,
		since.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPuzzles(rows)
}

func (s *sqliteStore) GetPuzzle(ctx context.Context, id int64) (puzzle.Puzzle, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, difficulty, chain_json, dummy_json, links_json, created_at
		 FROM puzzles WHERE id = ?`, id)
	p, err := scanPuzzle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return puzzle.Puzzle{}, false, nil
	}
	if err != nil {
		return puzzle.Puzzle{}, false, err
	}
	return p, true, nil
}

func (s *sqliteStore) GetAssignment(ctx context.Context, dateKey string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT puzzle_id FROM daily_assignments WHERE date_key = ?`, dateKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *sqliteStore) InsertAssignmentIfAbsent(ctx context.Context, dateKey string, puzzleID int64) (int64, error) {
	// The primary key on date_key carries the whole race: losers insert
	// nothing and the follow-up read returns the winner's row.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_assignments(date_key, puzzle_id, assigned_at) VALUES(?,?,?)
		 ON CONFLICT(date_key) DO NOTHING`,
		dateKey, puzzleID, time.Now().UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, err
	}
	committed, ok, err := s.GetAssignment(ctx, dateKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("assignment for %s missing after insert", dateKey)
	}
	return committed, nil
}

func (s *sqliteStore) ListAssignmentsBefore(ctx context.Context, dateKey string, limit int) ([]puzzle.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date_key, puzzle_id FROM daily_assignments
		 WHERE date_key < ? ORDER BY date_key DESC LIMIT ?`,
		dateKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []puzzle.Assignment
	for rows.Next() {
		var a puzzle.Assignment
		if err := rows.Scan(&a.DateKey, &a.PuzzleID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(r rowScanner) (puzzle.Puzzle, error) {
	var (
		p         puzzle.Puzzle
		diff      string
		chainJSON string
		dummyJSON string
		linksJSON sql.NullString
		createdAt string
	)
	if err := r.Scan(&p.ID, &diff, &chainJSON, &dummyJSON, &linksJSON, &createdAt); err != nil {
		return puzzle.Puzzle{}, err
	}
	p.Difficulty = puzzle.Difficulty(diff)
	if err := json.Unmarshal([]byte(chainJSON), &p.Chain); err != nil {
		return puzzle.Puzzle{}, fmt.Errorf("puzzle %d chain: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(dummyJSON), &p.Dummy); err != nil {
		return puzzle.Puzzle{}, fmt.Errorf("puzzle %d dummy: %w", p.ID, err)
	}
	// Older rows predate stored links; leave them nil.
	if linksJSON.Valid && linksJSON.String != "" {
		if err := json.Unmarshal([]byte(linksJSON.String), &p.Links); err != nil {
			return puzzle.Puzzle{}, fmt.Errorf("puzzle %d links: %w", p.ID, err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func scanPuzzles(rows *sql.Rows) ([]puzzle.Puzzle, error) {
	var out []puzzle.Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

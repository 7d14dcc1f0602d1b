package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wordchain/internal/puzzle"
)

var (
	// ErrBudgetExhausted reports that one difficulty slot ran out of
	// attempts. Non-fatal to a batch: remaining slots continue.
	ErrBudgetExhausted = errors.New("retry budget exhausted")
)

// Producer is the opaque candidate source. Implementations may fail or
// return non-conforming candidates; the pipeline assumes nothing about
// their internals and validates every result.
type Producer interface {
	Produce(ctx context.Context, difficulty puzzle.Difficulty, banned puzzle.BannedSet) (puzzle.Candidate, error)
}

// ParseCandidate decodes untrusted producer output into a Candidate.
// Unknown fields and trailing data are rejected; everything else (shape,
// duplicates, collisions) is the validation engine's job.
func ParseCandidate(data []byte) (puzzle.Candidate, error) {
	var c puzzle.Candidate
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return puzzle.Candidate{}, fmt.Errorf("candidate decode: %w", err)
	}
	if dec.More() {
		return puzzle.Candidate{}, errors.New("candidate decode: trailing data")
	}
	return c, nil
}

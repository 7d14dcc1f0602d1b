package daily

import (
	"context"

	"wordchain/internal/puzzle"
)

// NextForUser returns the next unplayed puzzle for a device in endless mode.
// The pool is ordered by the seeded shuffle keyed by the device id, so every
// visit walks the same personal order; played ids are skipped. ok is false
// when the device has exhausted the pool — an explicit empty result, never
// an error.
func NextForUser(ctx context.Context, pool PoolStore, userID string, played map[int64]bool) (puzzle.Puzzle, bool, error) {
	entries, err := pool.ListApprovedPuzzles(ctx)
	if err != nil {
		return puzzle.Puzzle{}, false, err
	}
	for _, p := range puzzle.Shuffle(entries, "endless:"+userID) {
		if played[p.ID] {
			continue
		}
		return p, true, nil
	}
	return puzzle.Puzzle{}, false, nil
}

// WordBank returns the presentation order of a puzzle's visible words: the
// chain and distractor words shuffled deterministically by puzzle id, so the
// bank renders identically on every load of the same puzzle.
func WordBank(p puzzle.Puzzle, seed string) []string {
	words := make([]string, 0, len(p.Chain)+len(p.Dummy))
	words = append(words, p.Chain...)
	words = append(words, p.Dummy...)
	return puzzle.Shuffle(words, seed)
}

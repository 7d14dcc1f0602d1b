package puzzle

import "time"

// Difficulty labels a puzzle slot. The generator is asked for a specific
// difficulty and the validator rejects candidates that come back mislabeled.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Shape constants for a well-formed puzzle.
const (
	ChainLen = 8  // solution words
	DummyLen = 10 // distractor words
	LinkLen  = 7  // adjacent-pair links (ChainLen - 1)
)

// Candidate is a transient, untrusted puzzle proposal from the generator.
// It exists only until validated; it is never persisted in this form.
type Candidate struct {
	Chain      []string   `json:"chain"`
	Dummy      []string   `json:"dummy"`
	Links      []string   `json:"links"`
	Difficulty Difficulty `json:"difficulty"`
}

// Puzzle is an approved pool entry. Immutable once created.
type Puzzle struct {
	ID         int64
	Difficulty Difficulty
	Chain      []string
	Dummy      []string
	Links      []string // may be empty on rows created before links were stored
	CreatedAt  time.Time
}

// Assignment is one row of the daily ledger: a civil date bound to a puzzle.
// Rows are terminal; this subsystem never updates or deletes them.
type Assignment struct {
	DateKey  string
	PuzzleID int64
}

// Endpoints returns the first and last chain word, normalized.
// Older rows with short chains yield empty strings.
func (p Puzzle) Endpoints() (first, last string) {
	if len(p.Chain) == 0 {
		return "", ""
	}
	return NormalizeWord(p.Chain[0]), NormalizeWord(p.Chain[len(p.Chain)-1])
}

// NormalizedLinks returns the puzzle's links in normalized form. For rows
// that predate stored links, links are reconstructed as the fused form of
// each adjacent chain pair so recency checks still see them.
func (p Puzzle) NormalizedLinks() []string {
	if len(p.Links) > 0 {
		out := make([]string, 0, len(p.Links))
		for _, l := range p.Links {
			out = append(out, NormalizeLink(l))
		}
		return out
	}
	if len(p.Chain) < 2 {
		return nil
	}
	out := make([]string, 0, len(p.Chain)-1)
	for i := 0; i+1 < len(p.Chain); i++ {
		out = append(out, FusedPair(p.Chain[i], p.Chain[i+1]))
	}
	return out
}

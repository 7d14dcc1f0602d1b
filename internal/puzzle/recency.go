package puzzle

import "sort"

// SoftAvoidWordCap bounds the soft-avoid word sample in a computed banned
// set. Links and endpoints are hard constraints and are never truncated;
// the word list only steers the generator prompt and downstream comparisons,
// so it is kept small.
const SoftAvoidWordCap = 120

// BannedSet is the ephemeral anti-repetition context threaded through
// validation and scheduling. Derived from recent pool or ledger history,
// optionally unioned with same-session exclusions; never stored.
type BannedSet struct {
	Links     map[string]struct{}
	Endpoints map[string]struct{}
	Words     map[string]struct{}
}

func NewBannedSet() BannedSet {
	return BannedSet{
		Links:     map[string]struct{}{},
		Endpoints: map[string]struct{}{},
		Words:     map[string]struct{}{},
	}
}

func (b BannedSet) Clone() BannedSet {
	cp := NewBannedSet()
	for l := range b.Links {
		cp.Links[l] = struct{}{}
	}
	for e := range b.Endpoints {
		cp.Endpoints[e] = struct{}{}
	}
	for w := range b.Words {
		cp.Words[w] = struct{}{}
	}
	return cp
}

func (b BannedSet) AddLink(l string) {
	if n := NormalizeLink(l); n != "" {
		b.Links[n] = struct{}{}
	}
}

func (b BannedSet) AddEndpoint(w string) {
	if n := NormalizeWord(w); n != "" {
		b.Endpoints[n] = struct{}{}
	}
}

func (b BannedSet) AddWord(w string) {
	if n := NormalizeWord(w); n != "" {
		b.Words[n] = struct{}{}
	}
}

func (b BannedSet) HasLink(l string) bool {
	_, ok := b.Links[NormalizeLink(l)]
	return ok
}

func (b BannedSet) HasEndpoint(w string) bool {
	_, ok := b.Endpoints[NormalizeWord(w)]
	return ok
}

func (b BannedSet) HasWord(w string) bool {
	_, ok := b.Words[NormalizeWord(w)]
	return ok
}

// AddPuzzle folds one historical puzzle into the set. Words beyond maxWords
// are dropped; links and endpoints always land.
func (b BannedSet) AddPuzzle(p Puzzle, maxWords int) {
	for _, l := range p.NormalizedLinks() {
		b.Links[l] = struct{}{}
	}
	first, last := p.Endpoints()
	if first != "" {
		b.Endpoints[first] = struct{}{}
	}
	if last != "" {
		b.Endpoints[last] = struct{}{}
	}
	for _, w := range p.Chain {
		if len(b.Words) >= maxWords {
			return
		}
		b.AddWord(w)
	}
}

// Union folds other into b in place.
func (b BannedSet) Union(other BannedSet) {
	for l := range other.Links {
		b.Links[l] = struct{}{}
	}
	for e := range other.Endpoints {
		b.Endpoints[e] = struct{}{}
	}
	for w := range other.Words {
		b.Words[w] = struct{}{}
	}
}

// WordSample returns the soft-avoid words in stable sorted order, for
// embedding into generator prompts.
func (b BannedSet) WordSample() []string {
	out := make([]string, 0, len(b.Words))
	for w := range b.Words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// CollectBanned derives a banned set from a slice of historical puzzles,
// e.g. pool rows created inside a rolling window, or the puzzles assigned to
// the trailing window of calendar dates.
func CollectBanned(history []Puzzle, maxWords int) BannedSet {
	if maxWords <= 0 {
		maxWords = SoftAvoidWordCap
	}
	b := NewBannedSet()
	for _, p := range history {
		b.AddPuzzle(p, maxWords)
	}
	return b
}

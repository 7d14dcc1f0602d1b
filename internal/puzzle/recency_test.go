package puzzle

import (
	"fmt"
	"testing"
)

func historyPuzzle(id int64, chain []string, links []string) Puzzle {
	return Puzzle{ID: id, Chain: chain, Links: links}
}

func TestCollectBanned(t *testing.T) {
	t.Parallel()
	hist := []Puzzle{
		historyPuzzle(1,
			[]string{"Key", "Chain", "Reaction", "Time", "Zone", "Defense", "Mechanism", "Failure"},
			[]string{"keychain", "chain reaction", "reaction time", "time zone", "zone defense", "defense mechanism", "mechanism failure"}),
	}
	b := CollectBanned(hist, 0)

	for _, l := range []string{"keychain", "chain reaction", "mechanism failure"} {
		if !b.HasLink(l) {
			t.Fatalf("missing banned link %q", l)
		}
	}
	if !b.HasEndpoint("key") || !b.HasEndpoint("failure") {
		t.Fatalf("endpoints not collected: %v", b.Endpoints)
	}
	if b.HasEndpoint("zone") {
		t.Fatalf("interior word collected as endpoint")
	}
	if !b.HasWord("reaction") {
		t.Fatalf("chain word not in soft-avoid sample")
	}
}

func TestCollectBannedReconstructsMissingLinks(t *testing.T) {
	t.Parallel()
	// Rows created before links were stored still contribute their fused
	// forms to the banned set.
	hist := []Puzzle{
		historyPuzzle(1, []string{"Key", "Chain", "Reaction", "Time", "Zone", "Defense", "Mechanism", "Failure"}, nil),
	}
	b := CollectBanned(hist, 0)
	if !b.HasLink("keychain") || !b.HasLink("mechanismfailure") {
		t.Fatalf("fused links not reconstructed: %v", b.Links)
	}
}

func TestCollectBannedWordTruncation(t *testing.T) {
	t.Parallel()
	var hist []Puzzle
	for i := 0; i < 40; i++ {
		chain := make([]string, ChainLen)
		for j := range chain {
			chain[j] = fmt.Sprintf("Word%d_%d", i, j)
		}
		hist = append(hist, historyPuzzle(int64(i+1), chain, nil))
	}
	b := CollectBanned(hist, 50)

	if len(b.Words) > 50 {
		t.Fatalf("word sample exceeds cap: %d", len(b.Words))
	}
	// Links and endpoints are hard constraints; they must all land.
	if len(b.Links) != 40*LinkLen {
		t.Fatalf("links truncated: %d", len(b.Links))
	}
	if len(b.Endpoints) != 40*2 {
		t.Fatalf("endpoints truncated: %d", len(b.Endpoints))
	}
}

func TestBannedSetCloneIsolation(t *testing.T) {
	t.Parallel()
	b := NewBannedSet()
	b.AddLink("time zone")
	cp := b.Clone()
	cp.AddLink("ice cream")
	if b.HasLink("ice cream") {
		t.Fatalf("clone mutated the original")
	}
	if !cp.HasLink("time zone") {
		t.Fatalf("clone lost original entries")
	}
}

func TestBannedSetUnionAndSample(t *testing.T) {
	t.Parallel()
	a := NewBannedSet()
	a.AddWord("zebra")
	b := NewBannedSet()
	b.AddWord("apple")
	b.AddEndpoint("key")
	a.Union(b)
	if !a.HasWord("apple") || !a.HasEndpoint("key") {
		t.Fatalf("union incomplete: %v", a)
	}
	sample := a.WordSample()
	if len(sample) != 2 || sample[0] != "apple" || sample[1] != "zebra" {
		t.Fatalf("sample not sorted: %v", sample)
	}
}

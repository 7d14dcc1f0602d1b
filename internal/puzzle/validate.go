package puzzle

import (
	"fmt"
	"strings"
)

// IssueKind classifies a validation finding.
//
//   - KindStructural: missing or malformed fields; fatal to the candidate and
//     not worth retrying under the same constraints.
//   - KindCollision: conflict with the banned set; the caller escalates by
//     folding the cited value into the next attempt's banned set.
//   - KindLeakage: a distractor reveals an adjacent link; treated like a
//     collision by the retry loop.
//   - KindWarning: reported but never blocks acceptance.
type IssueKind string

const (
	KindStructural IssueKind = "structural"
	KindCollision  IssueKind = "collision"
	KindLeakage    IssueKind = "leakage"
	KindWarning    IssueKind = "warning"
)

// Rule names identify which check produced an issue.
const (
	RuleShape          = "shape"
	RuleDifficulty     = "difficulty"
	RuleDuplicateWord  = "duplicate-word"
	RuleMultiToken     = "multi-token"
	RuleDummyIsChain   = "dummy-equals-chain"
	RuleDummyLeaksLink = "dummy-leaks-link"
	RuleLinkForm       = "link-form"
	RuleBannedLink     = "banned-link"
	RuleReuseBudget    = "reuse-budget"
	RuleBannedEndpoint = "banned-endpoint"
	RuleTitleCase      = "title-case"
)

// Issue is one itemized validation finding. Value carries the offending
// normalized link, endpoint, or word so retry escalation can hard-block it
// on the next attempt.
type Issue struct {
	Kind  IssueKind
	Rule  string
	Value string
	Msg   string
}

func (i Issue) Blocking() bool { return i.Kind != KindWarning }

func (i Issue) String() string {
	if i.Value == "" {
		return fmt.Sprintf("%s/%s: %s", i.Kind, i.Rule, i.Msg)
	}
	return fmt.Sprintf("%s/%s (%s): %s", i.Kind, i.Rule, i.Value, i.Msg)
}

// Blocking filters issues down to the ones that fail the candidate.
func Blocking(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Blocking() {
			out = append(out, i)
		}
	}
	return out
}

// Limits tunes the history-sensitive validation rules.
type Limits struct {
	// ReuseBudget is the number of chain words allowed to overlap the banned
	// word sample before the candidate is rejected.
	ReuseBudget int
	// BlockEndpoints hard-blocks candidates whose first or last chain word
	// appears in the banned endpoint set.
	BlockEndpoints bool
}

// Validate runs the full rule set over an untrusted candidate. An empty
// result means the candidate is accepted. Warnings may appear alongside an
// otherwise clean result; use Blocking to decide pass/fail.
//
// Shape violations return immediately: the remaining rules index into the
// chain and link slices and are meaningless on a malformed candidate.
func Validate(c Candidate, want Difficulty, banned BannedSet, lim Limits) []Issue {
	if issues := checkShape(c); len(issues) > 0 {
		return issues
	}

	var issues []Issue

	if c.Difficulty != want {
		issues = append(issues, Issue{
			Kind: KindStructural, Rule: RuleDifficulty,
			Msg: fmt.Sprintf("difficulty %q, want %q", c.Difficulty, want),
		})
	}

	issues = append(issues, checkWords(c)...)
	issues = append(issues, checkDummies(c)...)
	issues = append(issues, checkLinks(c, banned)...)
	issues = append(issues, checkReuse(c, banned, lim)...)

	// Soft rule: Title Case deviations are reported, not enforced, since
	// proper nouns legitimately break the pattern.
	for _, w := range append(append([]string{}, c.Chain...), c.Dummy...) {
		if !IsTitleCase(w) {
			issues = append(issues, Issue{
				Kind: KindWarning, Rule: RuleTitleCase, Value: NormalizeWord(w),
				Msg: fmt.Sprintf("word %q is not Title Case", w),
			})
		}
	}

	return issues
}

func checkShape(c Candidate) []Issue {
	var issues []Issue
	if len(c.Chain) != ChainLen {
		issues = append(issues, Issue{
			Kind: KindStructural, Rule: RuleShape,
			Msg: fmt.Sprintf("chain has %d words, want %d", len(c.Chain), ChainLen),
		})
	}
	if len(c.Dummy) != DummyLen {
		issues = append(issues, Issue{
			Kind: KindStructural, Rule: RuleShape,
			Msg: fmt.Sprintf("dummy has %d words, want %d", len(c.Dummy), DummyLen),
		})
	}
	if len(c.Links) != LinkLen {
		issues = append(issues, Issue{
			Kind: KindStructural, Rule: RuleShape,
			Msg: fmt.Sprintf("links has %d entries, want %d", len(c.Links), LinkLen),
		})
	}
	if c.Difficulty == "" {
		issues = append(issues, Issue{
			Kind: KindStructural, Rule: RuleShape,
			Msg: "difficulty is empty",
		})
	}
	return issues
}

func checkWords(c Candidate) []Issue {
	var issues []Issue
	seen := map[string]string{}
	for _, w := range append(append([]string{}, c.Chain...), c.Dummy...) {
		if !IsSingleToken(w) {
			issues = append(issues, Issue{
				Kind: KindStructural, Rule: RuleMultiToken, Value: NormalizeWord(w),
				Msg: fmt.Sprintf("word %q is not a single token", w),
			})
		}
		n := NormalizeWord(w)
		if prev, dup := seen[n]; dup {
			issues = append(issues, Issue{
				Kind: KindStructural, Rule: RuleDuplicateWord, Value: n,
				Msg: fmt.Sprintf("word %q duplicates %q", w, prev),
			})
			continue
		}
		seen[n] = w
	}
	return issues
}

func checkDummies(c Candidate) []Issue {
	var issues []Issue

	chainWords := map[string]struct{}{}
	for _, w := range c.Chain {
		chainWords[NormalizeWord(w)] = struct{}{}
	}
	fused := map[string]int{}
	for i := 0; i+1 < len(c.Chain); i++ {
		fused[FusedPair(c.Chain[i], c.Chain[i+1])] = i
	}

	for _, d := range c.Dummy {
		n := NormalizeWord(d)
		if _, ok := chainWords[n]; ok {
			issues = append(issues, Issue{
				Kind: KindStructural, Rule: RuleDummyIsChain, Value: n,
				Msg: fmt.Sprintf("distractor %q equals a chain word", d),
			})
		}
		// Anti-leak: a distractor matching the fused compound of an adjacent
		// pair would hand the solver that link for free.
		if i, ok := fused[n]; ok {
			issues = append(issues, Issue{
				Kind: KindLeakage, Rule: RuleDummyLeaksLink, Value: n,
				Msg: fmt.Sprintf("distractor %q is the fused form of adjacent chain pair %d-%d", d, i, i+1),
			})
		}
	}
	return issues
}

func checkLinks(c Candidate, banned BannedSet) []Issue {
	var issues []Issue
	for i, raw := range c.Links {
		n := NormalizeLink(raw)
		a, b := c.Chain[i], c.Chain[i+1]

		ok := n == FusedPair(a, b) || n == SpacedPair(a, b)
		if strings.ContainsRune(raw, '-') {
			ok = false
		}
		// Links must arrive lowercase as authored; normalization is for
		// comparison, not a repair step.
		if raw != strings.ToLower(raw) {
			ok = false
		}
		if !ok {
			issues = append(issues, Issue{
				Kind: KindStructural, Rule: RuleLinkForm, Value: n,
				Msg: fmt.Sprintf("link %d %q is not the compound or two-word phrase of %q and %q", i, raw, a, b),
			})
			continue
		}
		if banned.HasLink(n) {
			issues = append(issues, Issue{
				Kind: KindCollision, Rule: RuleBannedLink, Value: n,
				Msg: fmt.Sprintf("link %d %q was used recently", i, n),
			})
		}
	}
	return issues
}

func checkReuse(c Candidate, banned BannedSet, lim Limits) []Issue {
	var issues []Issue

	reused := 0
	for _, w := range c.Chain {
		if banned.HasWord(w) {
			reused++
		}
	}
	if reused > lim.ReuseBudget {
		issues = append(issues, Issue{
			Kind: KindCollision, Rule: RuleReuseBudget,
			Msg: fmt.Sprintf("%d chain words overlap recent history, budget is %d", reused, lim.ReuseBudget),
		})
	}

	if lim.BlockEndpoints {
		for _, w := range []string{c.Chain[0], c.Chain[ChainLen-1]} {
			if banned.HasEndpoint(w) {
				issues = append(issues, Issue{
					Kind: KindCollision, Rule: RuleBannedEndpoint, Value: NormalizeWord(w),
					Msg: fmt.Sprintf("endpoint %q was an endpoint recently", w),
				})
			}
		}
	}
	return issues
}

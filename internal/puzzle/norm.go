package puzzle

import (
	"strings"
	"unicode"
)

// NormalizeWord trims and lowercases a single word.
func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// NormalizeLink trims, lowercases, and collapses internal whitespace runs
// to single spaces, so "ice  cream" and "ice cream" compare equal.
func NormalizeLink(l string) string {
	return strings.Join(strings.Fields(strings.ToLower(l)), " ")
}

// IsSingleToken reports whether the trimmed string contains no whitespace
// and no hyphen. Chain and distractor words must be single tokens.
func IsSingleToken(w string) bool {
	w = strings.TrimSpace(w)
	if w == "" {
		return false
	}
	for _, r := range w {
		if unicode.IsSpace(r) || r == '-' {
			return false
		}
	}
	return true
}

// IsTitleCase reports whether the first rune is upper case and every
// remaining rune is lower case. Proper nouns legitimately deviate, so
// callers treat a false result as a warning, never a hard failure.
func IsTitleCase(w string) bool {
	runes := []rune(strings.TrimSpace(w))
	if len(runes) == 0 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// FusedPair is the compound form of two adjacent chain words. Distractors
// matching a fused pair would silently reveal the link between the pair.
func FusedPair(a, b string) string {
	return NormalizeWord(a) + NormalizeWord(b)
}

// SpacedPair is the two-word phrase form of two adjacent chain words.
func SpacedPair(a, b string) string {
	return NormalizeWord(a) + " " + NormalizeWord(b)
}

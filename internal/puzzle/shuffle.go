package puzzle

import "unicode/utf16"

// Shuffle returns a seeded deterministic permutation of items. The input
// slice is not mutated. The same seed text always yields the same order, in
// this process and in any other implementation of the same derivation, which
// is what lets a puzzle id or device id reproduce an identical presentation
// order across sessions.
//
// Seed derivation folds the seed text per UTF-16 code unit as
// h = (h<<5) - h + c wrapped to int32, then drives a mulberry32 generator
// feeding a Fisher-Yates pass from the end of the slice.
func Shuffle[T any](items []T, seedText string) []T {
	out := make([]T, len(items))
	copy(out, items)
	draw := mulberry32(foldSeed(seedText))
	for i := len(out) - 1; i >= 1; i-- {
		j := int(draw() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func foldSeed(s string) uint32 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(cu)
	}
	return uint32(h)
}

// mulberry32 is a tiny 32-bit PRNG with a single word of state. Each draw
// yields a float64 in [0, 1). All arithmetic wraps at 32 bits.
func mulberry32(state uint32) func() float64 {
	t := state
	return func() float64 {
		t += 0x6D2B79F5
		x := t
		x = (x ^ (x >> 15)) * (x | 1)
		x ^= x + (x^(x>>7))*(x|61)
		return float64(x^(x>>14)) / 4294967296.0
	}
}

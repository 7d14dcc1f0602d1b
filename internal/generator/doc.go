// Package generator produces validated puzzles for the pool.
//
// A Producer is an opaque candidate source (in production, Gemini). The
// Pipeline drives it through the validation engine with a bounded
// retry-with-escalation loop: every rejection that cites a banned link or
// endpoint hard-blocks that value on the next attempt, tightening the search
// space until the candidate passes or the slot's budget runs out. A failed
// slot never fails the batch.
package generator

// Package random provides the deterministic randomization primitives used to
// shuffle quiz question content. Every attempt/question pair maps to a fixed
// seed, so the same display arrangement can be recomputed at render time and
// at grading time without storing the permutation anywhere.
package random

import (
	"unicode/utf16"
)

const (
	// Park-Miller constants. The modulus is the Mersenne prime 2^31-1.
	lcgModulus    int64 = 2147483647
	lcgMultiplier int64 = 16807
)

// QuestionSeed derives a non-negative seed from an attempt ID and a question ID.
// The two IDs are joined with a separator and folded with the polynomial hash
// hash = hash*31 + code, wrapping to 32-bit signed on every step. Codes are
// UTF-16 units so the result matches the hash computed by the web client.
func QuestionSeed(attemptID, questionID string) int64 {
	key := attemptID + "-" + questionID

	var hash int32
	for _, unit := range utf16.Encode([]rune(key)) {
		hash = hash*31 + int32(unit)
	}

	// Negate after widening: abs(math.MinInt32) does not fit in int32.
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return h
}

// Source is a Lehmer (Park-Miller) linear congruential generator. It is
// deterministic per seed and cheap, which is all shuffling needs. It is not
// cryptographically secure.
type Source struct {
	state int64
}

// NewSource returns a generator seeded into [1, lcgModulus-1]. Seeds that
// normalize to zero or below are shifted by modulus-1 to avoid the zero
// fixed point of the recurrence.
func NewSource(seed int64) *Source {
	state := seed % lcgModulus
	if state <= 0 {
		state += lcgModulus - 1
	}
	return &Source{state: state}
}

// Float64 advances the generator and returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.state = s.state * lcgMultiplier % lcgModulus
	return float64(s.state-1) / float64(lcgModulus-1)
}

// Intn advances the generator and returns a value in [min, max).
func (s *Source) Intn(min, max int) int {
	return min + int(s.Float64()*float64(max-min))
}

// Shuffle returns a permuted copy of items using a backward Fisher-Yates walk.
// The input slice is never modified and the generator is drawn from exactly
// len(items)-1 times, so callers sharing one Source across shuffles get
// reproducible composite arrangements.
func Shuffle[T any](items []T, src *Source) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.Intn(0, i+1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

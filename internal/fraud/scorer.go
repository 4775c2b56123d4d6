package fraud

import (
	"math"
	"math/rand/v2"
)

// Score bands. Valid clicks land in [0, validScoreCeiling), invalid clicks in
// [invalidScoreFloor, invalidScoreFloor+invalidScoreSpan).
const (
	validScoreCeiling = 0.1
	invalidScoreFloor = 0.5
	invalidScoreSpan  = 0.4
)

// Entropy returns a value in [0, 1).
type Entropy func() float64

// Scorer attaches a fraud score to a verdict.
type Scorer struct {
	entropy Entropy
}

// NewScorer returns a Scorer drawing from math/rand/v2.
func NewScorer() *Scorer {
	return NewScorerWithEntropy(rand.Float64)
}

// NewScorerWithEntropy returns a Scorer drawing from e. Tests pass a fixed source.
func NewScorerWithEntropy(e Entropy) *Scorer {
	return &Scorer{entropy: e}
}

// Score returns the fraud score for a verdict.
func (s *Scorer) Score(valid bool) float64 {
	e := s.entropy()
	if e < 0 || e >= 1 {
		e = 0
	}
	if valid {
		return below(validScoreCeiling*e, validScoreCeiling)
	}
	return below(invalidScoreFloor+invalidScoreSpan*e, invalidScoreFloor+invalidScoreSpan)
}

// below keeps rounding at the top of the entropy range from reaching limit.
func below(score, limit float64) float64 {
	if score >= limit {
		return math.Nextafter(limit, 0)
	}
	return score
}

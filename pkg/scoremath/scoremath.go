// Package scoremath implements the boost and recency post-processing
// math shared by Reranker and the no-rerank path: translating a signed
// feedback count into a multiplier, and normalizing scores into a stable
// display range.
package scoremath

import (
	"math"
	"sort"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
)

// Tunable bounds for TranslateBoostCountToMultiplier. Pinned here (rather
// than left as unconstrained config) so tests can assert the exact curve:
// monotonically non-decreasing, b=0 maps to 1.0, bounded both sides.
const (
	boostMultiplierFloor = 0.5
	boostMultiplierCeil  = 2.0

	// boostStep is the per-unit multiplier delta; the curve is linear and
	// clamped, which keeps it monotonic and trivially invertible for tests.
	boostStep = 0.1
)

// TranslateBoostCountToMultiplier maps a signed integer boost count to a
// positive multiplier: monotonically non-decreasing in b, b=0 → 1.0,
// bounded both sides to avoid runaway multiplicative effects from a single
// heavily-boosted or heavily-downvoted document.
func TranslateBoostCountToMultiplier(b int) float64 {
	m := 1.0 + float64(b)*boostStep
	if m < boostMultiplierFloor {
		return boostMultiplierFloor
	}
	if m > boostMultiplierCeil {
		return boostMultiplierCeil
	}
	return m
}

// ApplyBoost is the no-rerank path: it rescales each chunk's retrieval
// score by its boost and recency multipliers, normalizing against a window
// defined only by the top norm_cutoff scores so that a long tail of low
// scores cannot compress the visible range for the results a user actually
// sees.
//
// Mutates each chunk's Score in place and returns chunks re-sorted by the
// new score, descending, stable.
func ApplyBoost(chunks []*chunk.InferenceChunk, normCutoff int, normMin, normMax float64) []*chunk.InferenceChunk {
	if len(chunks) == 0 {
		return chunks
	}

	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		scores[i] = c.ScoreOrZero()
	}

	top := scores
	if normCutoff > 0 && normCutoff < len(scores) {
		top = scores[:normCutoff]
	}

	nmin, nmax := normMin, normMax
	for _, s := range top {
		if s < nmin {
			nmin = s
		}
		if s > nmax {
			nmax = s
		}
	}

	nrange := nmax - nmin

	boosted := make([]float64, len(chunks))
	for i, c := range chunks {
		boost := TranslateBoostCountToMultiplier(c.Boost)
		recency := c.RecencyBias
		if nrange == 0 {
			// Avoid division by zero: fall back to raw multiplication.
			boosted[i] = scores[i] * boost * recency
			continue
		}
		v := (scores[i] - nmin) * boost * recency / nrange
		boosted[i] = math.Max(0, v)
	}

	ordered := make([]int, len(chunks))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return boosted[ordered[a]] > boosted[ordered[b]]
	})

	result := make([]*chunk.InferenceChunk, len(chunks))
	for rank, idx := range ordered {
		c := chunks[idx]
		c.SetScore(boosted[idx])
		result[rank] = c
	}
	return result
}

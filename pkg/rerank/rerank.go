// Package rerank implements Reranker: cross-encoder ensemble scoring of a
// shortlisted set of chunks, combined multiplicatively with boost and
// recency, and normalized into a stable display range.
package rerank

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/scoremath"
)

// CrossEncoderEnsemble is the injected capability that scores a query
// against a batch of passages. Score returns a matrix of raw similarities
// shaped (models, passages): S[m][i] is model m's score for passages[i].
type CrossEncoderEnsemble interface {
	Score(ctx context.Context, query string, passages []string) ([][]float64, error)
}

// Reranker cross-encoder-scores a shortlist of chunks and reorders them.
type Reranker struct {
	ensemble CrossEncoderEnsemble
}

// New constructs a Reranker backed by ensemble. ensemble must be non-nil.
func New(ensemble CrossEncoderEnsemble) (*Reranker, error) {
	if ensemble == nil {
		return nil, errors.New("rerank: ensemble must not be nil")
	}
	return &Reranker{ensemble: ensemble}, nil
}

// Rerank scores the first numRerank chunks (the remainder pass through
// untouched, scores cleared) and reorders the scored prefix by a combined
// signal: the ensemble's shifted mean raw score, multiplied by boost and
// recency, normalized into [rangeMin, rangeMax].
//
// Steps:
//  1. Score the shortlist with every model in the ensemble, yielding a
//     matrix S of shape (models, passages).
//  2. raw mean: raw[i] = mean_over_models(S[:, i]).
//  3. cross_min = min(S) over every model and every passage position.
//  4. shifted[i] = raw[i] - cross_min (always >= 0, since cross_min is the
//     minimum over the whole matrix, not just the mean-collapsed vector).
//  5. boosted = shifted * boost_multiplier(chunk.Boost) * chunk.RecencyBias.
//  6. normalize boosted into [rangeMin, rangeMax] using
//     (boosted + cross_min - model_min) / (model_max - model_min), matching
//     the historical normalization window (anchored at the pre-shift
//     minimum, not the post-boost minimum).
//  7. stable sort descending by normalized score.
//  8. assign Score on the reordered prefix.
//  9. Score on the untouched tail is cleared, not left stale.
// The raw similarity matrix is also returned for metrics purposes only
// (§6's RerankMetrics.raw_similarity_scores); it never influences the
// returned order.
func (r *Reranker) Rerank(ctx context.Context, query string, chunks []*chunk.InferenceChunk, numRerank int, rangeMin, rangeMax float64) ([]*chunk.InferenceChunk, [][]float64, error) {
	if len(chunks) == 0 {
		return chunks, nil, nil
	}
	if numRerank <= 0 || numRerank > len(chunks) {
		numRerank = len(chunks)
	}

	head := chunks[:numRerank]
	tail := chunks[numRerank:]

	passages := make([]string, len(head))
	for i, c := range head {
		passages[i] = c.Content
	}

	matrix, err := r.ensemble.Score(ctx, query, passages)
	if err != nil {
		for _, c := range chunks {
			c.ClearScore()
		}
		return nil, nil, chunk.NewRerankError(err)
	}
	if len(matrix) == 0 {
		for _, c := range chunks {
			c.ClearScore()
		}
		return nil, nil, chunk.NewRerankError(errors.New("rerank: ensemble returned no model scores"))
	}

	crossMin := matrix[0][0]
	for _, modelRow := range matrix {
		for _, s := range modelRow {
			if s < crossMin {
				crossMin = s
			}
		}
	}

	raw := make([]float64, len(passages))
	for _, modelRow := range matrix {
		for i, s := range modelRow {
			raw[i] += s
		}
	}
	for i := range raw {
		raw[i] /= float64(len(matrix))
	}

	shifted := make([]float64, len(raw))
	boosted := make([]float64, len(raw))
	for i, s := range raw {
		shifted[i] = s - crossMin
		boost := scoremath.TranslateBoostCountToMultiplier(head[i].Boost)
		recency := head[i].RecencyBias
		boosted[i] = shifted[i] * boost * recency
	}

	modelMin, modelMax := boosted[0], boosted[0]
	for _, b := range boosted {
		if b < modelMin {
			modelMin = b
		}
		if b > modelMax {
			modelMax = b
		}
	}

	normalized := make([]float64, len(boosted))
	modelRange := modelMax - modelMin
	for i, b := range boosted {
		if modelRange == 0 {
			normalized[i] = rangeMin
			continue
		}
		frac := (b + crossMin - modelMin) / modelRange
		normalized[i] = rangeMin + frac*(rangeMax-rangeMin)
		normalized[i] = math.Max(rangeMin, math.Min(rangeMax, normalized[i]))
	}

	order := make([]int, len(head))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return normalized[order[a]] > normalized[order[b]]
	})

	result := make([]*chunk.InferenceChunk, 0, len(chunks))
	for _, idx := range order {
		c := head[idx]
		c.SetScore(normalized[idx])
		result = append(result, c)
	}
	for _, c := range tail {
		c.ClearScore()
		result = append(result, c)
	}
	return result, matrix, nil
}

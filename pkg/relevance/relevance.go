// Package relevance implements RelevanceFilter: an LLM-judged pass/fail
// mask over a content snapshot, used to drop chunks the cross-encoder
// ranked highly but that an LLM judge finds not actually relevant.
package relevance

import (
	"context"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
)

// LLMChunkJudge is the injected capability that judges whether each of a
// batch of chunk contents is relevant to query. The returned slice is
// parallel to contents: true means relevant.
type LLMChunkJudge interface {
	Judge(ctx context.Context, query string, contents []string) ([]bool, error)
}

// Filter produces the relevant-chunk-ID mask.
type Filter struct {
	judge LLMChunkJudge
}

// New constructs a Filter backed by judge.
func New(judge LLMChunkJudge) *Filter {
	return &Filter{judge: judge}
}

// Relevant judges the first maxChunks entries of contents (a pre-extracted
// content snapshot, not live chunk pointers — the caller is expected to
// have taken this snapshot before a concurrently running Reranker mutates
// chunk.Score in place) and returns the chunk unique IDs, in the order
// first encountered, that the judge marked relevant.
//
// A judge failure is non-fatal: it fails open, treating every chunk as
// relevant, since an over-strict filter silently dropping good results is
// worse than an under-strict one passing through a few bad ones.
func (f *Filter) Relevant(ctx context.Context, query string, ids []string, contents []string, maxChunks int) ([]string, error) {
	if len(ids) != len(contents) {
		panic("relevance: ids and contents must be parallel slices")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if maxChunks <= 0 || maxChunks > len(ids) {
		maxChunks = len(ids)
	}

	judgeIDs := ids[:maxChunks]
	judgeContents := contents[:maxChunks]

	verdicts, err := f.judge.Judge(ctx, query, judgeContents)
	if err != nil {
		return uniqueOrdered(ids), chunk.NewJudgeError(err)
	}

	relevant := make([]string, 0, len(judgeIDs))
	for i, v := range verdicts {
		if i >= len(judgeIDs) {
			break
		}
		if v {
			relevant = append(relevant, judgeIDs[i])
		}
	}
	return uniqueOrdered(relevant), nil
}

func uniqueOrdered(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

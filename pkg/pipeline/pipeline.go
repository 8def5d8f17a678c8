// Package pipeline orchestrates a single search request end to end: query
// expansion, fan-out retrieval, merge, rerank, and relevance filtering.
package pipeline

import (
	"context"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/config"
	"github.com/kadirpekel/corpusrank/pkg/embedder"
	"github.com/kadirpekel/corpusrank/pkg/expansion"
	"github.com/kadirpekel/corpusrank/pkg/index"
	"github.com/kadirpekel/corpusrank/pkg/merge"
	"github.com/kadirpekel/corpusrank/pkg/relevance"
	"github.com/kadirpekel/corpusrank/pkg/rerank"
	"github.com/kadirpekel/corpusrank/pkg/retrievalmetrics"
	"github.com/kadirpekel/corpusrank/pkg/scoremath"
	"github.com/kadirpekel/corpusrank/pkg/utils"
	"github.com/kadirpekel/corpusrank/pkg/workerpool"
)

// Result is a completed Search call's output. RelevantMask is aligned
// positionally to Chunks: RelevantMask[i] reports whether Chunks[i] passed
// the relevance filter (or true for all, if the filter is disabled).
type Result struct {
	Chunks       []*chunk.InferenceChunk
	RelevantMask []bool
}

// Event is what SearchStream yields. Exactly two events are produced per
// call that does not fail outright (a fatal error is yielded alone, as a
// single event with a non-nil error): first one with Chunks set (the ranked results, post-rerank if
// rerank ran), then one with RelevantMask set (the relevance filter's
// verdict, a boolean mask the same length as and positionally aligned to
// the chunk list from the first event). A caller that only cares about
// ranked chunks can stop after the first event.
type Event struct {
	Chunks       []*chunk.InferenceChunk
	RelevantMask []bool
}

// Pipeline wires the retrieval collaborators together. All fields are
// optional except Dispatcher and Index; a nil Rerank/Filter/Expander
// degrades gracefully to the corresponding stage being skipped.
type Pipeline struct {
	Dispatcher *index.Dispatcher
	Index      index.DocumentIndex

	Expander *expansion.Expander
	Reranker *rerank.Reranker
	Filter   *relevance.Filter
	Pool     *workerpool.Pool
	Metrics  *retrievalmetrics.Metrics

	// TokenCounter bounds ChunkMetric content by token count rather than
	// character count. Optional: a nil TokenCounter leaves ChunkMetric
	// content untruncated.
	TokenCounter *utils.TokenCounter

	Config config.RetrievalConfig
}

// Search runs a single query end to end and returns the final ranked
// chunks plus the relevance filter's verdict. Both rerank and filter
// failures are non-fatal: rerank falls back to retrieval order with scores
// cleared, and the filter fails open (every chunk marked relevant).
func (p *Pipeline) Search(ctx context.Context, query chunk.SearchQuery) (Result, error) {
	var result Result
	for ev, err := range p.SearchStream(ctx, query) {
		if err != nil {
			return result, err
		}
		if ev.Chunks != nil {
			result.Chunks = ev.Chunks
		}
		if ev.RelevantMask != nil {
			result.RelevantMask = ev.RelevantMask
		}
	}
	return result, nil
}

// SearchStream runs query and yields exactly two events: the ranked chunks,
// then the relevance mask. When rerank is disabled (query.SkipRerank, or
// query.SearchType is Keyword), the first event is emitted as soon as
// retrieval and boosting finish, without waiting on the relevance filter —
// the filter runs after that event is consumed, and its verdict is the
// second event.
func (p *Pipeline) SearchStream(ctx context.Context, query chunk.SearchQuery) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		merged, err := p.retrieveAndMerge(ctx, query)
		if err != nil {
			yield(Event{}, err)
			return
		}

		skipRerank := query.SkipRerank || query.SearchType == chunk.Keyword || p.Reranker == nil
		if skipRerank {
			boosted := scoremath.ApplyBoost(merged, p.Config.NumRerankedResults, p.Config.SimScoreRangeLow, p.Config.SimScoreRangeHigh)
			if !yield(Event{Chunks: boosted}, nil) {
				return
			}
			ids := p.runFilter(ctx, query, boosted)
			yield(Event{RelevantMask: maskFromRelevantIDs(boosted, ids)}, nil)
			return
		}

		ids, reranked := p.runRerankAndFilter(ctx, query, merged)
		if !yield(Event{Chunks: reranked}, nil) {
			return
		}
		yield(Event{RelevantMask: maskFromRelevantIDs(reranked, ids)}, nil)
	}
}

// maskFromRelevantIDs converts the relevance filter's subset of relevant
// unique IDs into a boolean mask the same length as and positionally
// aligned to chunks, the list already yielded as the first event.
func maskFromRelevantIDs(chunks []*chunk.InferenceChunk, relevantIDs []string) []bool {
	relevant := make(map[string]bool, len(relevantIDs))
	for _, id := range relevantIDs {
		relevant[id] = true
	}
	mask := make([]bool, len(chunks))
	for i, c := range chunks {
		mask[i] = relevant[chunk.UniqueID(c)]
	}
	return mask
}

// retrieveAndMerge expands query, fans out retrieval across every expanded
// rephrase bounded by p.Pool, and merges the resulting chunk sets.
func (p *Pipeline) retrieveAndMerge(ctx context.Context, query chunk.SearchQuery) ([]*chunk.InferenceChunk, error) {
	queries := []string{query.Query}
	if p.Expander != nil {
		expanded, err := p.Expander.Expand(ctx, query.Query, p.Config.MultiQueryCount, p.Config.MultilingualQueryExpansion != "")
		if err != nil && p.Metrics != nil {
			p.Metrics.RecordPartialFailure(chunk.PartialFailure{Stage: "expansion", Reason: err.Error()})
		}
		if len(expanded) > 0 {
			queries = expanded
		}
	}

	perQuery := make([]chunk.SearchQuery, len(queries))
	for i, q := range queries {
		clone := query.Clone(q)
		if query.SearchType == chunk.Semantic || query.SearchType == chunk.Hybrid {
			clone.Query = embedder.ApplyAsymPrefix(q, p.Config.AsymQueryPrefix)
		}
		perQuery[i] = clone
	}

	pool := p.Pool
	if pool == nil {
		pool = workerpool.New(p.workerPoolSize())
		defer pool.StopWait()
	}

	results, errs := workerpool.Map(pool, perQuery, func(q chunk.SearchQuery) ([]*chunk.InferenceChunk, error) {
		start := time.Now()
		chunks, err := p.Dispatcher.Retrieve(ctx, q, p.Index, p.Config.HybridAlpha)
		if p.Metrics != nil {
			metrics := retrievalmetrics.ChunkMetricsFrom(chunks, p.TokenCounter, p.Config.MaxMetricsContent)
			p.Metrics.RecordRetrieval(q.SearchType, time.Since(start), len(chunks), metrics)
		}
		return chunks, err
	})

	chunkSets := make([][]*chunk.InferenceChunk, 0, len(results))
	failures := 0
	for i, r := range results {
		if errs[i] != nil {
			failures++
			continue
		}
		chunkSets = append(chunkSets, r)
	}
	if failures > 0 {
		reason := "some sub-retrievals failed"
		if failures == len(results) {
			reason = "all sub-retrievals failed"
		}
		if p.Metrics != nil {
			p.Metrics.RecordPartialFailure(chunk.PartialFailure{Stage: "retrieval", Reason: reason})
		}
	}
	if failures == len(results) && len(results) > 0 {
		return nil, errs[0]
	}

	return merge.Merge(chunkSets), nil
}

// workerPoolSize returns the configured fan-out width, defaulting to 1 when
// unset so a Pipeline built without an explicit Config still runs serially
// rather than panicking on a zero-sized pool.
func (p *Pipeline) workerPoolSize() int {
	if p.Config.WorkerPoolSize <= 0 {
		return 1
	}
	return p.Config.WorkerPoolSize
}

// runRerankAndFilter reranks merged and judges relevance concurrently. The
// filter reads a content snapshot taken before rerank starts, since rerank
// mutates chunk.Score in place and the filter must not race that mutation.
func (p *Pipeline) runRerankAndFilter(ctx context.Context, query chunk.SearchQuery, merged []*chunk.InferenceChunk) ([]string, []*chunk.InferenceChunk) {
	ids := make([]string, len(merged))
	contents := make([]string, len(merged))
	for i, c := range merged {
		ids[i] = chunk.UniqueID(c)
		contents[i] = c.Content
	}

	var reranked []*chunk.InferenceChunk
	var relevantIDs []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		r, rawScores, err := p.Reranker.Rerank(gctx, query.Query, merged, query.NumRerank, p.Config.CrossEncoderRangeMin, p.Config.CrossEncoderRangeMax)
		if p.Metrics != nil {
			reportedChunks := r
			if err != nil {
				reportedChunks = merged
			}
			metrics := retrievalmetrics.ChunkMetricsFrom(reportedChunks, p.TokenCounter, p.Config.MaxMetricsContent)
			p.Metrics.RecordRerank(time.Since(start), metrics, rawScores, err)
		}
		if err != nil {
			if p.Metrics != nil {
				p.Metrics.RecordPartialFailure(chunk.PartialFailure{Stage: "rerank", Reason: err.Error()})
			}
			reranked = merged
			return nil
		}
		reranked = r
		return nil
	})
	g.Go(func() error {
		if p.Filter == nil || query.SkipLLMChunkFilter {
			relevantIDs = ids
			return nil
		}
		maxChunks := query.MaxLLMFilterChunks
		if maxChunks <= 0 {
			maxChunks = p.Config.MaxLLMFilterChunks
		}
		result, err := p.Filter.Relevant(gctx, query.Query, ids, contents, maxChunks)
		if p.Metrics != nil {
			p.Metrics.RecordFilter(len(ids), len(result), err)
		}
		if err != nil && p.Metrics != nil {
			p.Metrics.RecordPartialFailure(chunk.PartialFailure{Stage: "relevance_filter", Reason: err.Error()})
		}
		relevantIDs = result
		return nil
	})
	_ = g.Wait()

	return relevantIDs, reranked
}

// runFilter runs only the relevance filter, used on the no-rerank path
// where there is no concurrent rerank to race against.
func (p *Pipeline) runFilter(ctx context.Context, query chunk.SearchQuery, chunks []*chunk.InferenceChunk) []string {
	if p.Filter == nil {
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = chunk.UniqueID(c)
		}
		return ids
	}
	if query.SkipLLMChunkFilter {
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = chunk.UniqueID(c)
		}
		return ids
	}

	ids := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = chunk.UniqueID(c)
		contents[i] = c.Content
	}

	maxChunks := query.MaxLLMFilterChunks
	if maxChunks <= 0 {
		maxChunks = p.Config.MaxLLMFilterChunks
	}
	result, err := p.Filter.Relevant(ctx, query.Query, ids, contents, maxChunks)
	if p.Metrics != nil {
		p.Metrics.RecordFilter(len(ids), len(result), err)
		if err != nil {
			p.Metrics.RecordPartialFailure(chunk.PartialFailure{Stage: "relevance_filter", Reason: err.Error()})
		}
	}
	return result
}

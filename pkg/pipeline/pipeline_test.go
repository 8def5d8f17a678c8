package pipeline

import (
	"context"
	"testing"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/config"
	"github.com/kadirpekel/corpusrank/pkg/expansion"
	"github.com/kadirpekel/corpusrank/pkg/index"
	"github.com/kadirpekel/corpusrank/pkg/relevance"
	"github.com/kadirpekel/corpusrank/pkg/rerank"
)

type fakeIndex struct {
	chunks []*chunk.InferenceChunk
}

func (f *fakeIndex) KeywordRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, n int) ([]*chunk.InferenceChunk, error) {
	return f.chunks, nil
}

func (f *fakeIndex) SemanticRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, n int) ([]*chunk.InferenceChunk, error) {
	return f.chunks, nil
}

func (f *fakeIndex) HybridRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, n int, alpha float64) ([]*chunk.InferenceChunk, error) {
	return f.chunks, nil
}

type fakeEnsemble struct{}

func (f *fakeEnsemble) Score(ctx context.Context, query string, passages []string) ([][]float64, error) {
	scores := make([]float64, len(passages))
	for i := range passages {
		scores[i] = float64(len(passages)-i) / float64(len(passages))
	}
	return [][]float64{scores}, nil
}

type fakeJudge struct {
	// relevant, if non-nil, maps content to its verdict; content not in the
	// map defaults to true. Lets tests exercise a mixed true/false mask.
	relevant map[string]bool
}

func (f *fakeJudge) Judge(ctx context.Context, query string, contents []string) ([]bool, error) {
	verdicts := make([]bool, len(contents))
	for i, c := range contents {
		if f.relevant == nil {
			verdicts[i] = true
			continue
		}
		verdicts[i] = f.relevant[c]
	}
	return verdicts, nil
}

func testChunks() []*chunk.InferenceChunk {
	return []*chunk.InferenceChunk{
		{DocumentID: "doc1", ChunkID: 0, Content: "alpha", RecencyBias: 1.0},
		{DocumentID: "doc2", ChunkID: 0, Content: "beta", RecencyBias: 1.0},
	}
}

func newPipeline(t *testing.T, idx index.DocumentIndex) *Pipeline {
	t.Helper()
	cfg := config.RetrievalConfig{}
	cfg.SetDefaults()
	reranker, err := rerank.New(&fakeEnsemble{})
	if err != nil {
		t.Fatalf("unexpected error constructing Reranker: %v", err)
	}
	return &Pipeline{
		Dispatcher: index.NewDispatcher(),
		Index:      idx,
		Expander:   expansion.New(nil),
		Reranker:   reranker,
		Filter:     relevance.New(&fakeJudge{}),
		Config:     cfg,
	}
}

func TestSearch_ReturnsRerankedChunksAndRelevanceMask(t *testing.T) {
	p := newPipeline(t, &fakeIndex{chunks: testChunks()})
	query := chunk.SearchQuery{Query: "q", SearchType: chunk.Semantic, NumHits: 2, NumRerank: 2, MaxLLMFilterChunks: 2}

	result, err := p.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
	if len(result.RelevantMask) != len(result.Chunks) {
		t.Fatalf("expected mask length %d to equal chunk count, got %d", len(result.Chunks), len(result.RelevantMask))
	}
	for i, relevant := range result.RelevantMask {
		if !relevant {
			t.Errorf("expected chunk %d to be marked relevant, got false", i)
		}
	}
}

func TestSearch_KeywordNeverReranks(t *testing.T) {
	p := newPipeline(t, &fakeIndex{chunks: testChunks()})
	query := chunk.SearchQuery{Query: "q", SearchType: chunk.Keyword, NumHits: 2, NumRerank: 2, MaxLLMFilterChunks: 2}

	result, err := p.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
}

func TestSearchStream_YieldsExactlyTwoEvents(t *testing.T) {
	p := newPipeline(t, &fakeIndex{chunks: testChunks()})
	query := chunk.SearchQuery{Query: "q", SearchType: chunk.Hybrid, NumHits: 2, NumRerank: 2, MaxLLMFilterChunks: 2}

	count := 0
	var sawChunks, sawMask bool
	for ev, err := range p.SearchStream(context.Background(), query) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
		if ev.Chunks != nil {
			sawChunks = true
		}
		if ev.RelevantMask != nil {
			sawMask = true
		}
	}
	if count != 2 {
		t.Fatalf("expected exactly 2 events, got %d", count)
	}
	if !sawChunks || !sawMask {
		t.Errorf("expected one chunks event and one mask event, got chunks=%v mask=%v", sawChunks, sawMask)
	}
}

func TestSearch_SkipRerankAppliesBoostInstead(t *testing.T) {
	p := newPipeline(t, &fakeIndex{chunks: testChunks()})
	query := chunk.SearchQuery{Query: "q", SearchType: chunk.Semantic, NumHits: 2, SkipRerank: true, MaxLLMFilterChunks: 2}

	result, err := p.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(result.Chunks))
	}
}

func TestSearch_PartialRelevanceYieldsSameLengthMaskAsChunks(t *testing.T) {
	idx := &fakeIndex{chunks: testChunks()}
	cfg := config.RetrievalConfig{}
	cfg.SetDefaults()
	reranker, err := rerank.New(&fakeEnsemble{})
	if err != nil {
		t.Fatalf("unexpected error constructing Reranker: %v", err)
	}
	p := &Pipeline{
		Dispatcher: index.NewDispatcher(),
		Index:      idx,
		Expander:   expansion.New(nil),
		Reranker:   reranker,
		Filter:     relevance.New(&fakeJudge{relevant: map[string]bool{"alpha": true, "beta": false}}),
		Config:     cfg,
	}
	query := chunk.SearchQuery{Query: "q", SearchType: chunk.Semantic, NumHits: 2, NumRerank: 2, MaxLLMFilterChunks: 2}

	result, err := p.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.RelevantMask) != len(result.Chunks) {
		t.Fatalf("expected mask length %d to equal chunk count %d", len(result.RelevantMask), len(result.Chunks))
	}
	for i, c := range result.Chunks {
		want := c.Content == "alpha"
		if result.RelevantMask[i] != want {
			t.Errorf("mask[%d] for content %q = %v, want %v", i, c.Content, result.RelevantMask[i], want)
		}
	}
}

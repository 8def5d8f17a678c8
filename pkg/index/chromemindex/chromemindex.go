// Package chromemindex is a reference DocumentIndex implementation backed
// by an in-process chromem-go vector collection for semantic retrieval and
// a textnorm-lemmatized term-overlap scorer for keyword retrieval. It
// exists to give the abstract index.DocumentIndex contract a concrete,
// testable body; production deployments are expected to inject their own
// backend (Qdrant, Pinecone, Weaviate, Milvus, ...).
package chromemindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/embedder"
	"github.com/kadirpekel/corpusrank/pkg/textnorm"
)

// Index is an embedded DocumentIndex combining chromem-go for semantic
// search and a lemmatized term-overlap scorer for keyword search.
type Index struct {
	mu         sync.RWMutex
	collection *chromem.Collection
	normalizer *textnorm.Normalizer

	// docs mirrors chunk content for keyword scoring; chromem-go stores
	// embeddings but keyword retrieval needs lemmatized term sets, which
	// are cheaper to keep alongside than to recompute from chromem's
	// metadata on every query.
	docs map[string]*chunk.InferenceChunk
	tf   map[string]map[string]int
}

// New builds an Index using model to embed documents and queries.
func New(ctx context.Context, collectionName string, model embedder.Model) (*Index, error) {
	normalizer, err := textnorm.Default()
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := model.Encode(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("chromemindex: embedding model returned no vectors")
		}
		return vecs[0], nil
	}

	collection, err := db.CreateCollection(collectionName, nil, embeddingFunc)
	if err != nil {
		return nil, err
	}

	return &Index{
		collection: collection,
		normalizer: normalizer,
		docs:       make(map[string]*chunk.InferenceChunk),
		tf:         make(map[string]map[string]int),
	}, nil
}

// Upsert embeds and stores c, making it retrievable by all three
// modalities.
func (idx *Index) Upsert(ctx context.Context, c *chunk.InferenceChunk) error {
	id := fmt.Sprintf("%s#%d", c.DocumentID, c.ChunkID)

	metadata := map[string]string{
		"document_id": c.DocumentID,
	}

	if err := idx.collection.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  c.Content,
		Metadata: metadata,
	}); err != nil {
		return fmt.Errorf("chromemindex: add document: %w", err)
	}

	terms := idx.normalizer.LemmatizeForKeyword(c.Content)
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}

	idx.mu.Lock()
	idx.docs[id] = c
	idx.tf[id] = counts
	idx.mu.Unlock()
	return nil
}

// KeywordRetrieval scores chunks by lemmatized query-term overlap (a
// simple term-frequency sum), descending.
func (idx *Index) KeywordRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int) ([]*chunk.InferenceChunk, error) {
	queryTerms := idx.normalizer.LemmatizeForKeyword(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		c     *chunk.InferenceChunk
		score float64
	}
	results := make([]scored, 0, len(idx.docs))
	for id, c := range idx.docs {
		var s float64
		for _, t := range queryTerms {
			s += float64(idx.tf[id][t])
		}
		if s == 0 {
			continue
		}
		results = append(results, scored{c: c, score: s})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	return clip(results, numToRetrieve, func(s scored) *chunk.InferenceChunk {
		out := cloneChunk(s.c)
		out.SetScore(s.score)
		return out
	}), nil
}

// SemanticRetrieval delegates to the chromem-go collection.
func (idx *Index) SemanticRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int) ([]*chunk.InferenceChunk, error) {
	idx.mu.RLock()
	n := len(idx.docs)
	idx.mu.RUnlock()
	if n == 0 || numToRetrieve <= 0 {
		return nil, nil
	}
	if numToRetrieve > n {
		numToRetrieve = n
	}

	results, err := idx.collection.Query(ctx, query, numToRetrieve, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromemindex: query: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*chunk.InferenceChunk, 0, len(results))
	for _, r := range results {
		c, ok := idx.docs[r.ID]
		if !ok {
			continue
		}
		clone := cloneChunk(c)
		clone.SetScore(float64(r.Similarity))
		out = append(out, clone)
	}
	return out, nil
}

// HybridRetrieval linearly combines the keyword and semantic signals:
// score = hybridAlpha*semantic + (1-hybridAlpha)*keyword, each divided by
// the highest score in its own result list before combination so neither
// scale dominates.
func (idx *Index) HybridRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int, hybridAlpha float64) ([]*chunk.InferenceChunk, error) {
	semantic, err := idx.SemanticRetrieval(ctx, query, filters, favorRecent, numToRetrieve)
	if err != nil {
		return nil, err
	}
	keyword, err := idx.KeywordRetrieval(ctx, query, filters, favorRecent, numToRetrieve)
	if err != nil {
		return nil, err
	}

	semByKey := normalizedScores(semantic)
	kwByKey := normalizedScores(keyword)

	combined := make(map[chunk.Key]*chunk.InferenceChunk)
	for _, c := range semantic {
		combined[chunk.KeyOf(c)] = c
	}
	for _, c := range keyword {
		if _, ok := combined[chunk.KeyOf(c)]; !ok {
			combined[chunk.KeyOf(c)] = c
		}
	}

	out := make([]*chunk.InferenceChunk, 0, len(combined))
	for key, c := range combined {
		score := hybridAlpha*semByKey[key] + (1-hybridAlpha)*kwByKey[key]
		c.SetScore(score)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScoreOrZero() > out[j].ScoreOrZero() })
	if numToRetrieve > 0 && len(out) > numToRetrieve {
		out = out[:numToRetrieve]
	}
	return out, nil
}

func normalizedScores(chunks []*chunk.InferenceChunk) map[chunk.Key]float64 {
	out := make(map[chunk.Key]float64, len(chunks))
	if len(chunks) == 0 {
		return out
	}
	max := 0.0
	for _, c := range chunks {
		if s := c.ScoreOrZero(); s > max {
			max = s
		}
	}
	for _, c := range chunks {
		if max == 0 {
			out[chunk.KeyOf(c)] = 0
			continue
		}
		out[chunk.KeyOf(c)] = c.ScoreOrZero() / max
	}
	return out
}

func clip[T any](items []T, n int, project func(T) *chunk.InferenceChunk) []*chunk.InferenceChunk {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	out := make([]*chunk.InferenceChunk, len(items))
	for i, it := range items {
		out[i] = project(it)
	}
	return out
}

func cloneChunk(c *chunk.InferenceChunk) *chunk.InferenceChunk {
	cp := *c
	return &cp
}

// Package index declares the DocumentIndex capability the pipeline
// depends on, and RetrievalDispatcher, which routes a SearchQuery to the
// correct modality. The core depends only on this abstract contract —
// concrete backends (keyword, vector, hybrid engines) are injected.
package index

import (
	"context"
	"fmt"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/registry"
)

// DocumentIndex is the injected retrieval capability. Implementations may
// reject unsupported modalities at dispatch time with InvalidSearchFlowError
// — a single fixed method set rather than a mix-in capability hierarchy,
// since Go has no multiple-inheritance trait composition to model
// KeywordCapable/VectorCapable/HybridCapable as separable capabilities
// cleanly. Chunks returned must be self-contained and safe to reorder;
// Score is the index's raw ranking signal.
type DocumentIndex interface {
	KeywordRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int) ([]*chunk.InferenceChunk, error)
	SemanticRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int) ([]*chunk.InferenceChunk, error)
	HybridRetrieval(ctx context.Context, query string, filters chunk.IndexFilters, favorRecent bool, numToRetrieve int, hybridAlpha float64) ([]*chunk.InferenceChunk, error)
}

// Dispatcher routes a SearchQuery to the matching DocumentIndex method. It
// never retries; all failures besides an unknown search type surface as
// chunk.IndexError tagged with the attempted modality.
type Dispatcher struct{}

// NewDispatcher constructs a Dispatcher. It holds no state; Pipeline holds
// it as a concrete *Dispatcher collaborator.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Retrieve dispatches query against idx according to query.SearchType.
func (d *Dispatcher) Retrieve(ctx context.Context, query chunk.SearchQuery, idx DocumentIndex, hybridAlpha float64) ([]*chunk.InferenceChunk, error) {
	var (
		chunks []*chunk.InferenceChunk
		err    error
	)

	switch query.SearchType {
	case chunk.Keyword:
		chunks, err = idx.KeywordRetrieval(ctx, query.Query, query.Filters, query.FavorRecent, query.NumHits)
	case chunk.Semantic:
		chunks, err = idx.SemanticRetrieval(ctx, query.Query, query.Filters, query.FavorRecent, query.NumHits)
	case chunk.Hybrid:
		chunks, err = idx.HybridRetrieval(ctx, query.Query, query.Filters, query.FavorRecent, query.NumHits, hybridAlpha)
	default:
		return nil, chunk.NewInvalidSearchFlowError(query.SearchType)
	}

	if err != nil {
		return nil, chunk.NewIndexError(query.SearchType, err)
	}
	return chunks, nil
}

// Registry names DocumentIndex backends so a deployment can wire multiple
// collections (e.g. one embedded reference index per document set) and
// look them up by name.
type Registry struct {
	*registry.BaseRegistry[DocumentIndex]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[DocumentIndex]()}
}

// Named registers idx under name, rejecting an empty name.
func (r *Registry) Named(name string, idx DocumentIndex) error {
	if name == "" {
		return fmt.Errorf("document index name cannot be empty")
	}
	return r.Register(name, idx)
}

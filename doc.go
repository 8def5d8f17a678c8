// Package corpusrank provides a retrieval and ranking pipeline for
// document search: query expansion, fan-out retrieval across keyword,
// semantic, and hybrid backends, cross-encoder reranking, and LLM-judged
// relevance filtering.
//
// The pipeline depends only on a small set of injected capabilities —
// DocumentIndex, EmbeddingModel, CrossEncoderEnsemble, LLMRephraser,
// LLMChunkJudge — so a deployment can wire in whatever backends it
// already runs.
//
// # Using as a Go Library
//
// Import the orchestration package for the full pipeline:
//
//	import "github.com/kadirpekel/corpusrank/pkg/pipeline"
//
// Or import specific stages:
//
//	import (
//	    "github.com/kadirpekel/corpusrank/pkg/index"
//	    "github.com/kadirpekel/corpusrank/pkg/rerank"
//	    "github.com/kadirpekel/corpusrank/pkg/relevance"
//	)
//
// # Architecture
//
//	SearchQuery → Expander → RetrievalDispatcher (fan-out) → ResultMerger
//	  → Reranker ⇉ RelevanceFilter → SearchDoc
//
// Reranker and RelevanceFilter run concurrently: the filter judges a
// content snapshot taken before reranking starts, so it never races the
// reranker's in-place score mutation.
//
// # Alpha Status
//
// corpusrank is in early development. APIs may change.
//
// # License
//
// Apache-2.0 - See LICENSE.md for details.
package corpusrank

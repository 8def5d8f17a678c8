// Package chunk defines the data model shared by every stage of the
// retrieval and ranking pipeline: the inbound SearchQuery, the
// InferenceChunk produced by a DocumentIndex, and the projection used to
// hand results to a caller.
package chunk

import "time"

// SearchType selects which DocumentIndex modality RetrievalDispatcher uses.
type SearchType string

const (
	Keyword  SearchType = "keyword"
	Semantic SearchType = "semantic"
	Hybrid   SearchType = "hybrid"
)

// IndexFilters is opaque to the core: it is passed through verbatim to the
// DocumentIndex, which interprets sources, time windows, document sets and
// tags however it sees fit.
type IndexFilters struct {
	Sources       []string
	DocumentSets  []string
	Tags          map[string]string
	TimeCutoff    *time.Time
}

// SearchQuery is the input to the pipeline. It is immutable across the
// pipeline; a per-rephrase clone substitutes only Query.
type SearchQuery struct {
	Query      string
	Filters    IndexFilters
	SearchType SearchType

	// FavorRecent asks the index to weight recency more heavily.
	FavorRecent bool

	// NumHits is the target retrieval count per sub-retrieval.
	NumHits int

	// NumRerank bounds how many top chunks the reranker scores; the rest
	// keep retrieval order with scores cleared.
	NumRerank int

	// MaxLLMFilterChunks upper-bounds the RelevanceFilter's judge input.
	MaxLLMFilterChunks int

	// SkipRerank and SkipLLMChunkFilter toggle post-processing stages off
	// regardless of search type (except KEYWORD, which never reranks).
	SkipRerank         bool
	SkipLLMChunkFilter bool
}

// Clone returns a copy of q with Query replaced — used to build one query
// per unique rephrase without aliasing the original's Filters map.
func (q SearchQuery) Clone(query string) SearchQuery {
	clone := q
	clone.Query = query
	if q.Filters.Tags != nil {
		tags := make(map[string]string, len(q.Filters.Tags))
		for k, v := range q.Filters.Tags {
			tags[k] = v
		}
		clone.Filters.Tags = tags
	}
	return clone
}

// SourceLink is an offset into a document paired with the URL anchored
// there; position 0 is the primary link for the chunk.
type SourceLink struct {
	Offset int
	URL    string
}

// InferenceChunk is a passage-sized fragment of a document: the atomic unit
// of retrieval and ranking.
type InferenceChunk struct {
	DocumentID          string
	ChunkID             int
	Content             string
	SemanticIdentifier  string
	SourceType          string
	SourceLinks         []SourceLink
	Blurb               string
	MatchHighlights     []string

	// Boost is a signed integer of accumulated human feedback, translated
	// into a multiplicative weight by scoremath.TranslateBoostCountToMultiplier.
	Boost int

	// RecencyBias is a non-negative multiplier precomputed by the index.
	RecencyBias float64

	UpdatedAt *time.Time
	Hidden    bool

	// Score is mutated in place by Reranker/ScoreMath. A nil Score is
	// treated as 0 everywhere.
	Score *float64
}

// ScoreOrZero returns c.Score dereferenced, or 0 if absent.
func (c *InferenceChunk) ScoreOrZero() float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// SetScore assigns c.Score, allocating storage for the pointer.
func (c *InferenceChunk) SetScore(s float64) {
	v := s
	c.Score = &v
}

// ClearScore sets c.Score back to absent: used on the untouched tail after
// a partial rerank, since rerank scores cannot be meaningfully combined
// with retrieval-order scores.
func (c *InferenceChunk) ClearScore() {
	c.Score = nil
}

// Key is the uniqueness key for dedup: (document_id, chunk_id).
type Key struct {
	DocumentID string
	ChunkID    int
}

// KeyOf returns c's dedup key.
func KeyOf(c *InferenceChunk) Key {
	return Key{DocumentID: c.DocumentID, ChunkID: c.ChunkID}
}

// UniqueID derives the string form of Key used by RelevanceFilter to
// correlate judge output back to the chunk it scored.
func UniqueID(c *InferenceChunk) string {
	return c.DocumentID + "__" + itoa(c.ChunkID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// FirstLink returns the URL at offset 0, or "" if no links are recorded.
func (c *InferenceChunk) FirstLink() string {
	for _, l := range c.SourceLinks {
		if l.Offset == 0 {
			return l.URL
		}
	}
	if len(c.SourceLinks) > 0 {
		return c.SourceLinks[0].URL
	}
	return ""
}

// SearchDoc is the chunk projection handed to a caller once the pipeline
// has finished: display-ready fields only, no pipeline-internal state.
type SearchDoc struct {
	DocumentID         string
	SemanticIdentifier string
	Link               string
	Blurb              string
	SourceType         string
	Boost              int
	Hidden             bool
	Score              *float64
	MatchHighlights    []string
	UpdatedAt          *time.Time
}

// ToSearchDocs projects chunks into SearchDocs. Chunks with an empty
// SemanticIdentifier are dropped from the projection — old indices did not
// always populate it — but such chunks are kept everywhere inside the
// pipeline itself.
func ToSearchDocs(chunks []*InferenceChunk) []SearchDoc {
	docs := make([]SearchDoc, 0, len(chunks))
	for _, c := range chunks {
		if c.SemanticIdentifier == "" {
			continue
		}
		docs = append(docs, SearchDoc{
			DocumentID:         c.DocumentID,
			SemanticIdentifier: c.SemanticIdentifier,
			Link:                c.FirstLink(),
			Blurb:               c.Blurb,
			SourceType:          c.SourceType,
			Boost:               c.Boost,
			Hidden:              c.Hidden,
			Score:               c.Score,
			MatchHighlights:     c.MatchHighlights,
			UpdatedAt:           c.UpdatedAt,
		})
	}
	return docs
}

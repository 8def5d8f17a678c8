package chunk

import "fmt"

// InvalidSearchFlowError reports an unknown SearchType reaching the
// dispatcher. It is always a programming error and fatal to the call.
type InvalidSearchFlowError struct {
	SearchType SearchType
}

func NewInvalidSearchFlowError(searchType SearchType) *InvalidSearchFlowError {
	return &InvalidSearchFlowError{SearchType: searchType}
}

func (e *InvalidSearchFlowError) Error() string {
	return fmt.Sprintf("invalid search flow: unknown search type %q", e.SearchType)
}

// IndexError reports a DocumentIndex failure for a specific modality.
type IndexError struct {
	Modality SearchType
	Err      error
}

func NewIndexError(modality SearchType, err error) *IndexError {
	return &IndexError{Modality: modality, Err: err}
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("document index %s retrieval failed: %v", e.Modality, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// ExpansionError reports an LLMRephraser failure. Callers recover locally
// by falling back to the original query.
type ExpansionError struct {
	Err error
}

func NewExpansionError(err error) *ExpansionError {
	return &ExpansionError{Err: err}
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("query expansion failed: %v", e.Err)
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}

// RerankError reports a cross-encoder ensemble failure. Callers recover
// locally by skipping rerank and clearing scores on the untouched tail.
type RerankError struct {
	Err error
}

func NewRerankError(err error) *RerankError {
	return &RerankError{Err: err}
}

func (e *RerankError) Error() string {
	return fmt.Sprintf("rerank failed: %v", e.Err)
}

func (e *RerankError) Unwrap() error {
	return e.Err
}

// JudgeError reports an LLM relevance judge failure. Callers recover
// locally with an all-true mask (fail-open).
type JudgeError struct {
	Err error
}

func NewJudgeError(err error) *JudgeError {
	return &JudgeError{Err: err}
}

func (e *JudgeError) Error() string {
	return fmt.Sprintf("relevance judge failed: %v", e.Err)
}

func (e *JudgeError) Unwrap() error {
	return e.Err
}

// InitError reports a model or resource initialization failure (embedder,
// cross-encoder ensemble, lemmatizer/stopword tables). Fatal at first use.
type InitError struct {
	Resource string
	Err      error
}

func NewInitError(resource string, err error) *InitError {
	return &InitError{Resource: resource, Err: err}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Resource, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// PartialFailure is not returned as an error: it is the degraded-mode
// indicator surfaced via a metrics sink when a stage degrades — a rephraser,
// rerank or relevance-judge failure recovered locally, or one or more
// parallel sub-retrievals failing. When only some sub-retrievals fail, the
// pipeline still returns valid data; when every sub-retrieval fails, the
// pipeline also returns the first retrieval error instead of data.
type PartialFailure struct {
	Stage  string
	Reason string
}

func (p PartialFailure) String() string {
	return fmt.Sprintf("partial failure in %s: %s", p.Stage, p.Reason)
}

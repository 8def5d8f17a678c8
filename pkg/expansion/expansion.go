// Package expansion implements QueryExpander: turning one user query into
// a small set of rephrased queries to broaden recall across retrieval
// backends that are sensitive to exact wording.
package expansion

import (
	"context"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
	"github.com/kadirpekel/corpusrank/pkg/textnorm"
)

// LLMRephraser is the injected capability that proposes alternate
// phrasings of a query. A failure here is never fatal to search: callers
// fall back to the original query alone.
type LLMRephraser interface {
	Rephrase(ctx context.Context, query string, count int) ([]string, error)
}

// Expander produces the set of queries a retrieval should fan out across.
type Expander struct {
	rephraser LLMRephraser
}

// New constructs an Expander. rephraser may be nil, in which case Expand
// always returns just the original query.
func New(rephraser LLMRephraser) *Expander {
	return &Expander{rephraser: rephraser}
}

// Expand returns the original query plus up to count-1 LLM-proposed
// rephrasings, deduplicated by canonical form. The original query is
// always present and always first, regardless of what the rephraser
// returns. A query spanning multiple lines is never expanded: multi-line
// queries are typically pasted structured text (code, logs, forms) where
// rephrasing would discard meaning rather than add recall. If
// multilingualExpansion is false, count <= 1, or the rephraser is nil, no
// LLM call is made at all.
func (e *Expander) Expand(ctx context.Context, query string, count int, multilingualExpansion bool) ([]string, error) {
	if containsNewline(query) {
		return []string{query}, nil
	}

	result := []string{query}
	seen := map[string]bool{textnorm.Canonicalize(query): true}

	if e.rephraser == nil || count <= 1 || !multilingualExpansion {
		return result, nil
	}

	rephrased, err := e.rephraser.Rephrase(ctx, query, count-1)
	if err != nil {
		// Non-fatal: expansion is a recall booster, not a correctness
		// requirement. Fall back to the original query alone.
		return result, chunk.NewExpansionError(err)
	}

	for _, r := range rephrased {
		if len(result) >= count {
			break
		}
		key := textnorm.Canonicalize(r)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, r)
	}
	return result, nil
}

func containsNewline(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' {
			return true
		}
	}
	return false
}

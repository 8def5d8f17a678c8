// Package textnorm provides the two text-normalization primitives the
// pipeline needs: a cheap canonicalizer used only to de-duplicate
// rephrased queries, and an English stopword/punctuation/stem pipeline
// used to prepare keyword-search query terms.
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
)

// Canonicalize lowercases and removes whitespace and punctuation. Used
// exclusively as a dedup key for rephrased queries — two rephrases that
// differ only in case or punctuation are treated as identical.
func Canonicalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Normalizer performs English stopword removal, punctuation removal, and
// stemming for keyword-search terms. The tokenizer, stopword table, and
// stemmer are built once and reused; Normalizer is safe for concurrent use.
type Normalizer struct {
	tokenizer analysis.Tokenizer
	stopWords *analysis.TokenMap
	lower     analysis.TokenFilter
	stemmer   analysis.TokenFilter
}

var (
	defaultOnce sync.Once
	defaultNorm *Normalizer
	defaultErr  error
)

// Default returns the process-wide Normalizer, building it on first use.
// Failures here surface as chunk.InitError: the lemmatizer and stopword
// set are required process singletons per the pipeline's model-cache
// discipline.
func Default() (*Normalizer, error) {
	defaultOnce.Do(func() {
		defaultNorm, defaultErr = New()
	})
	if defaultErr != nil {
		return nil, chunk.NewInitError("textnorm.Normalizer", defaultErr)
	}
	return defaultNorm, nil
}

// New builds a fresh Normalizer. Most callers should use Default(); New is
// exposed for tests that want an isolated instance.
func New() (*Normalizer, error) {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.StopWords); err != nil {
		return nil, err
	}

	return &Normalizer{
		tokenizer: unicode.NewUnicodeTokenizer(),
		stopWords: stopWords,
		lower:     lowercase.NewLowerCaseFilter(),
		stemmer:   porter.NewPorterStemmerFilter(),
	}, nil
}

// LemmatizeForKeyword tokenizes text, lowercases, removes English stopwords
// and punctuation, and stems the remainder. If stopword removal
// would empty the token list entirely (e.g. a query that is only stopwords,
// such as "what is this"), the raw lowercased, stemmed tokens are returned
// instead so the keyword search never runs on zero terms.
func (n *Normalizer) LemmatizeForKeyword(text string) []string {
	raw := n.tokenizer.Tokenize([]byte(text))

	stemmedRaw := n.stemmer.Filter(n.lower.Filter(cloneStream(raw)))
	rawTerms := termsOf(stemmedRaw)

	stopFilter := stop.NewStopTokensFilter(n.stopWords)
	filtered := n.stemmer.Filter(stopFilter.Filter(n.lower.Filter(cloneStream(raw))))
	terms := termsOf(filtered)

	if len(terms) == 0 {
		return rawTerms
	}
	return terms
}

func cloneStream(ts analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, len(ts))
	for i, t := range ts {
		cp := *t
		term := make([]byte, len(t.Term))
		copy(term, t.Term)
		cp.Term = term
		out[i] = &cp
	}
	return out
}

func termsOf(ts analysis.TokenStream) []string {
	terms := make([]string, 0, len(ts))
	for _, t := range ts {
		if len(t.Term) == 0 {
			continue
		}
		terms = append(terms, string(t.Term))
	}
	return terms
}

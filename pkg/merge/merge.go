// Package merge implements ResultMerger: unioning chunk lists retrieved
// from one or more sub-retrievals into a single deduplicated, ordered list.
package merge

import (
	"sort"

	"github.com/kadirpekel/corpusrank/pkg/chunk"
)

// Merge flattens chunkSets, keeps the highest-scoring chunk for each
// (document_id, chunk_id) key (absent score treated as 0, ties broken by
// first-seen order), and returns the result sorted by score descending.
//
// The sort is stable so that chunks with identical scores retain their
// merge-order position — this matters because the same chunk can be
// retrieved by multiple rephrases, and reproducible ordering across runs
// depends on a deterministic tie-break.
//
// Merge is idempotent on an already-merged list and commutative up to
// stable tie order: the order sub-retrievals complete in does not affect
// the final ranking.
func Merge(chunkSets [][]*chunk.InferenceChunk) []*chunk.InferenceChunk {
	type entry struct {
		c     *chunk.InferenceChunk
		order int
	}

	unique := make(map[chunk.Key]*entry)
	order := 0
	var keysInOrder []chunk.Key

	for _, set := range chunkSets {
		for _, c := range set {
			key := chunk.KeyOf(c)
			existing, ok := unique[key]
			if !ok {
				unique[key] = &entry{c: c, order: order}
				keysInOrder = append(keysInOrder, key)
				order++
				continue
			}
			if c.ScoreOrZero() > existing.c.ScoreOrZero() {
				existing.c = c
			}
		}
	}

	result := make([]*chunk.InferenceChunk, len(keysInOrder))
	entries := make([]*entry, len(keysInOrder))
	for i, k := range keysInOrder {
		entries[i] = unique[k]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].c.ScoreOrZero() > entries[j].c.ScoreOrZero()
	})

	for i, e := range entries {
		result[i] = e.c
	}
	return result
}

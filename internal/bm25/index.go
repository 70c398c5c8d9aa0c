package bm25

import (
	"math"
	"sort"
)

// Default Okapi BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// Index is an in-memory BM25 inverted index. It keeps term postings with
// term frequencies, per-document term sets for fast removal, document
// lengths, and document frequencies. Not safe for concurrent use; callers
// serialize access.
type Index struct {
	k1 float64
	b  float64

	termIndex      map[string]map[string]int // term -> doc id -> term frequency
	docTerms       map[string]map[string]struct{}
	docLengths     map[string]int
	docFreq        map[string]int
	totalDocLength int
}

// NewIndex creates an empty index. Non-positive k1 or b use the defaults.
func NewIndex(k1, b float64) *Index {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &Index{
		k1:         k1,
		b:          b,
		termIndex:  make(map[string]map[string]int),
		docTerms:   make(map[string]map[string]struct{}),
		docLengths: make(map[string]int),
		docFreq:    make(map[string]int),
	}
}

// Add indexes content under id. Re-adding an existing id replaces its
// previous postings.
func (ix *Index) Add(id, content string) {
	if _, ok := ix.docTerms[id]; ok {
		ix.Remove(id)
	}
	tokens := Tokenize(content)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	terms := make(map[string]struct{}, len(tf))
	for t, n := range tf {
		terms[t] = struct{}{}
		postings := ix.termIndex[t]
		if postings == nil {
			postings = make(map[string]int)
			ix.termIndex[t] = postings
		}
		postings[id] = n
		ix.docFreq[t]++
	}
	ix.docTerms[id] = terms
	ix.docLengths[id] = len(tokens)
	ix.totalDocLength += len(tokens)
}

// Remove drops id from all postings, pruning empty postings lists and
// zero document frequencies. Returns false if id was not indexed.
func (ix *Index) Remove(id string) bool {
	terms, ok := ix.docTerms[id]
	if !ok {
		return false
	}
	for t := range terms {
		if postings := ix.termIndex[t]; postings != nil {
			delete(postings, id)
			if len(postings) == 0 {
				delete(ix.termIndex, t)
			}
		}
		if ix.docFreq[t]--; ix.docFreq[t] <= 0 {
			delete(ix.docFreq, t)
		}
	}
	ix.totalDocLength -= ix.docLengths[id]
	delete(ix.docTerms, id)
	delete(ix.docLengths, id)
	return true
}

// Clear resets the index to empty.
func (ix *Index) Clear() {
	ix.termIndex = make(map[string]map[string]int)
	ix.docTerms = make(map[string]map[string]struct{})
	ix.docLengths = make(map[string]int)
	ix.docFreq = make(map[string]int)
	ix.totalDocLength = 0
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docLengths)
}

// Search scores the query against the index and returns the top k documents
// by BM25 score descending (ties by ID ascending for determinism).
// idf uses the plus-one form ln((N - df + 0.5)/(df + 0.5) + 1) so scores
// stay non-negative for common terms.
func (ix *Index) Search(query string, k int) []Result {
	n := len(ix.docLengths)
	if n == 0 || k <= 0 {
		return nil
	}
	avgDl := float64(ix.totalDocLength) / float64(n)
	if avgDl < 1 {
		avgDl = 1
	}
	scores := make(map[string]float64)
	for _, term := range Tokenize(query) {
		postings := ix.termIndex[term]
		if len(postings) == 0 {
			continue
		}
		df := float64(ix.docFreq[term])
		idf := math.Log((float64(n)-df+0.5)/(df+0.5) + 1)
		for id, tf := range postings {
			dl := float64(ix.docLengths[id])
			f := float64(tf)
			norm := f * (ix.k1 + 1) / (f + ix.k1*(1-ix.b+ix.b*dl/avgDl))
			scores[id] += idf * norm
		}
	}
	results := make([]Result, 0, len(scores))
	for id, s := range scores {
		results = append(results, Result{ID: id, Score: s})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

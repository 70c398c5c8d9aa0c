package power

import (
	"context"
	"sort"

	"github.com/hyperjump/shirabe/internal/bm25"
	"github.com/hyperjump/shirabe/internal/models"
)

// Hybrid search constants.
const (
	HybridSearchName = "hybrid-search"
	// DefaultAlpha weights the semantic rank contribution in the fusion.
	DefaultAlpha = 0.5
	// rrfK is the rank-smoothing constant of Reciprocal Rank Fusion.
	rrfK = 60
	// candidateFloor and candidateFactor size the BM25 candidate pool:
	// candidateK = max(topK, candidateFloor) * candidateFactor.
	candidateFloor  = 10
	candidateFactor = 3
)

// HybridSearchOptions configures the hybrid search power. Alpha is the
// semantic weight in [0,1]; nil means DefaultAlpha (a nil pointer keeps an
// explicit 0.0 expressible). K1 and B are the BM25 parameters; zero values
// use the bm25 defaults.
type HybridSearchOptions struct {
	Alpha *float64
	K1    float64
	B     float64
}

// capturedDoc holds the content and metadata recorded in AfterAdd, used to
// hydrate results that only the keyword ranking surfaced.
type capturedDoc struct {
	content  string
	metadata map[string]interface{}
}

// hybridSearch keeps its own BM25 inverted index, independent of any index
// the engine may maintain, and fuses its ranking with the semantic ranking.
type hybridSearch struct {
	alpha float64
	index *bm25.Index
	docs  map[string]capturedDoc
}

// NewHybridSearch creates the hybrid search power. Its AfterAdd, OnDelete,
// and OnClear hooks mirror engine mutations into the internal BM25 index;
// its AfterSearch hook replaces the semantic ranking with the RRF fusion of
// the two rankings.
func NewHybridSearch(opts HybridSearchOptions) *Power {
	alpha := DefaultAlpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}
	hs := &hybridSearch{
		alpha: alpha,
		index: bm25.NewIndex(opts.K1, opts.B),
		docs:  make(map[string]capturedDoc),
	}
	return &Power{
		Name:        HybridSearchName,
		AfterAdd:    hs.afterAdd,
		AfterSearch: hs.afterSearch,
		OnDelete:    hs.onDelete,
		OnClear:     hs.onClear,
	}
}

func (hs *hybridSearch) afterAdd(ctx context.Context, docs []models.Document) error {
	for _, doc := range docs {
		hs.index.Add(doc.ID, doc.Content)
		hs.docs[doc.ID] = capturedDoc{content: doc.Content, metadata: doc.Metadata}
	}
	return nil
}

func (hs *hybridSearch) onDelete(ctx context.Context, id string) error {
	hs.index.Remove(id)
	delete(hs.docs, id)
	return nil
}

func (hs *hybridSearch) onClear(ctx context.Context) error {
	hs.index.Clear()
	hs.docs = make(map[string]capturedDoc)
	return nil
}

// afterSearch fuses the incoming semantic ranking with a BM25 ranking using
// Reciprocal Rank Fusion: fused = alpha/(rrfK + semRank) +
// (1-alpha)/(rrfK + kwRank), ranks starting at 1 on each list. The top topK
// IDs by fused score are returned, hydrated from the semantic result when
// available and from the captured documents otherwise.
func (hs *hybridSearch) afterSearch(ctx context.Context, sc *SearchContext, results []models.SearchResult) ([]models.SearchResult, error) {
	topK := sc.TopK
	if topK <= 0 {
		topK = len(results)
	}
	candidateK := topK
	if candidateK < candidateFloor {
		candidateK = candidateFloor
	}
	candidateK *= candidateFactor

	keyword := hs.index.Search(sc.Query, candidateK)

	fused := make(map[string]float64, len(results)+len(keyword))
	semantic := make(map[string]models.SearchResult, len(results))
	ids := make([]string, 0, len(results)+len(keyword))
	for i, r := range results {
		if _, seen := fused[r.ID]; !seen {
			ids = append(ids, r.ID)
		}
		fused[r.ID] += hs.alpha / float64(rrfK+i+1)
		semantic[r.ID] = r
	}
	for i, r := range keyword {
		if _, seen := fused[r.ID]; !seen {
			ids = append(ids, r.ID)
		}
		fused[r.ID] += (1 - hs.alpha) / float64(rrfK+i+1)
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return fused[ids[i]] > fused[ids[j]]
	})
	if len(ids) > topK {
		ids = ids[:topK]
	}

	out := make([]models.SearchResult, 0, len(ids))
	for _, id := range ids {
		if r, ok := semantic[id]; ok {
			r.Score = fused[id]
			out = append(out, r)
			continue
		}
		doc, ok := hs.docs[id]
		if !ok {
			continue
		}
		out = append(out, models.SearchResult{
			ID:       id,
			Content:  doc.content,
			Metadata: doc.metadata,
			Score:    fused[id],
		})
	}
	return out, nil
}

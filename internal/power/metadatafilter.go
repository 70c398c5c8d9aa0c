package power

import (
	"context"

	"github.com/hyperjump/shirabe/internal/models"
)

// MetadataFilterName is the registry name of the metadata filter power.
const MetadataFilterName = "metadata-filter"

// NewMetadataFilter creates a power whose AfterSearch hook discards results
// for which pred returns false. Surviving results keep their order; the
// returned list may hold fewer than topK entries.
func NewMetadataFilter(pred func(metadata map[string]interface{}) bool) *Power {
	return &Power{
		Name: MetadataFilterName,
		AfterSearch: func(ctx context.Context, sc *SearchContext, results []models.SearchResult) ([]models.SearchResult, error) {
			filtered := make([]models.SearchResult, 0, len(results))
			for _, r := range results {
				if pred(r.Metadata) {
					filtered = append(filtered, r)
				}
			}
			return filtered, nil
		},
	}
}

// Package cli provides CLI output utilities for Shirabe.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, query string, results []models.SearchResult, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []models.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.ID)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Content, 200))
		fmt.Fprintln(w)
	}
}

// Package models defines core data structures for documents and search results.
package models

// Document is a text document with a caller-supplied unique ID and arbitrary metadata.
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is a single search hit with the document fields and its score.
// For pure semantic results the score is cosine similarity; powers may replace
// it (hybrid search substitutes the fused score).
type SearchResult struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float64                `json:"score"`
}

// ExportedDocument is one entry of an engine snapshot. The embedding is a
// plain float list so snapshots stay transport-agnostic.
type ExportedDocument struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"embedding"`
}

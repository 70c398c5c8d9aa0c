// Package embedding provides the embedder contract, the built-in
// hash-derived embedder, and an LRU embedding cache.
package embedding

import "context"

// Embedder produces unit-norm vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

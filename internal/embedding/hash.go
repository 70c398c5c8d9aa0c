package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/shirabe/pkg/utils"
)

// DefaultDimensions is the embedding dimension used throughout the engine.
const DefaultDimensions = 384

// HashEmbedder is the built-in embedder: it derives a fixed-dimension
// unit-norm vector from token hashes so that the same text always gets the
// same embedding and texts sharing words land near each other. It is the
// pluggable default; real deployments swap it via an embedding power.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing deterministic embeddings of
// the given dimension (DefaultDimensions when non-positive).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the deterministic unit-norm embedding for text. Each token
// contributes energy to buckets derived from its hash, so overlapping
// vocabularies yield high cosine similarity.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	tokens := splitWords(text)
	if len(tokens) == 0 {
		emb[0] = 1
		return emb, nil
	}
	for _, tok := range tokens {
		h := hashString(tok) % (1 << 30)
		for j := 0; j < 4; j++ {
			idx := (h*(j+1) + j*7919) % e.dimensions
			emb[idx] += float32(math.Sin(float64(h%997)*float64(j+1)) + 1.5)
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// splitWords lowercases and splits on whitespace, dropping empty words.
func splitWords(text string) []string {
	var words []string
	word := make([]rune, 0, 16)
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if len(word) > 0 {
				words = append(words, string(word))
				word = word[:0]
			}
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		word = append(word, r)
	}
	if len(word) > 0 {
		words = append(words, string(word))
	}
	return words
}

// hashString returns a deterministic non-negative hash of s.
func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

package power

// EmbeddingSwapName is the registry name of the embedding swap power.
// Simultaneous embedding overrides need distinct names; registration order
// decides the winner.
const EmbeddingSwapName = "embedding-swap"

// NewEmbeddingSwap wraps a caller-supplied embedding function as a power.
// The function must return one unit-norm vector per input text.
func NewEmbeddingSwap(fn EmbedFunc) *Power {
	return &Power{
		Name:  EmbeddingSwapName,
		Embed: fn,
	}
}

// NewNamedEmbeddingSwap is like NewEmbeddingSwap with an explicit registry
// name, for callers that register more than one embedding override.
func NewNamedEmbeddingSwap(name string, fn EmbedFunc) *Power {
	return &Power{
		Name:  name,
		Embed: fn,
	}
}

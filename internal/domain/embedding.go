package domain

import "context"

// Embedder converts text to a vector embedding for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

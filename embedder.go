package esmap

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// Embedder turns text into a dense vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// embedderAdapter wraps the public Embedder so provider failures match
// ErrEmbeddingProvider.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	return vec, nil
}

// noopEmbedder rejects semantic queries when no embedder is configured.
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, domain.ErrEmbedderNotConfigured
}

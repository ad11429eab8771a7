package embedding

import "context"

// Embedder turns one non-empty text into a fixed length vector.
// Implementations return errors wrapping one of the sentinels in errors.go.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a plain function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/customHttpClient"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/akolanti/GoIngest/internal/rag/embedding/azureOpenAI"
	"github.com/akolanti/GoIngest/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB/milvusDB"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB/qdrantDB"
)

// buildEmbedder picks the provider, then wraps it with the optional client
// side rate limit and the retry policy.
func buildEmbedder(ctx context.Context, s config.EmbeddingSettings) (embedding.Embedder, error) {
	var (
		e   embedding.Embedder
		err error
	)
	switch strings.ToLower(s.Provider) {
	case config.ProviderAzure:
		e, err = azureOpenAI.New(azureOpenAI.Config{
			Endpoint:   s.AzureEndpoint,
			APIVersion: s.AzureAPIVersion,
			APIKey:     s.AzureKey,
			Model:      s.Model,
			Dimension:  s.Dimension,
			HTTPClient: customHttpClient.GetClient(),
		})
	case config.ProviderOpenAI:
		e, err = azureOpenAI.New(azureOpenAI.Config{
			APIKey:     s.OpenAIKey,
			BaseURL:    s.OpenAIBaseURL,
			Model:      s.Model,
			Dimension:  s.Dimension,
			HTTPClient: customHttpClient.GetClient(),
		})
	case config.ProviderGoogle:
		e, err = googleEmbedding.NewGoogleEmbedder(ctx, googleEmbedding.Config{
			APIKey:     s.GoogleAPIKey,
			Model:      s.Model,
			Dimension:  s.Dimension,
			HTTPClient: customHttpClient.GetClient(),
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", config.ErrConfig, s.Provider)
	}
	if err != nil {
		return nil, err
	}

	policy := embedding.NewRetryPolicy(s.MaxAttempts, time.Duration(s.RetryBaseDelay), time.Duration(s.RetryMaxDelay))
	return embedding.Decorate(e, policy, s.RateLimit), nil
}

// buildIndex connects the configured backend and makes sure the collection exists.
func buildIndex(ctx context.Context, s config.Settings) (vectorDB.Index, error) {
	var (
		idx vectorDB.Index
		err error
	)
	switch strings.ToLower(s.Index.Backend) {
	case config.BackendQdrant:
		idx, err = qdrantDB.GetQuadrantClient(ctx, qdrantDB.Config{
			Host:       s.Index.QdrantHost,
			Port:       s.Index.QdrantPort,
			APIKey:     s.Index.QdrantAPIKey,
			UseTLS:     s.Index.QdrantUseTLS,
			Collection: s.Index.Name,
			Dimension:  s.Embedding.Dimension,
		})
	case config.BackendMilvus:
		idx, err = milvusDB.NewMilvusIndex(ctx, milvusDB.Config{
			Address:    s.Index.MilvusAddr,
			APIKey:     s.Index.MilvusAPIKey,
			Collection: s.Index.Name,
			Dimension:  s.Embedding.Dimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", config.ErrConfig, s.Index.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

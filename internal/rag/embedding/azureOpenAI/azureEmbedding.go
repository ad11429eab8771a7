package azureOpenAI

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

const providerName = "azure_openai"

// Config selects between an Azure deployment (Endpoint and APIVersion set)
// and the public OpenAI API.
type Config struct {
	Endpoint   string
	APIVersion string
	APIKey     string
	BaseURL    string
	// Model is the deployment name on Azure.
	Model      string
	Dimension  int
	HTTPClient *http.Client
}

type Client struct {
	api       openai.Client
	model     string
	dimension int
	log       *logger_i.Logger
}

var _ embedding.Embedder = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: api key is empty", providerName, embedding.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: %w: model is empty", providerName, embedding.ErrConfig)
	}

	// the pipeline owns retries
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	log := logger_i.NewLogger("azure_embedding")
	if cfg.Endpoint != "" {
		if cfg.APIVersion == "" {
			return nil, fmt.Errorf("%s: %w: api version is empty", providerName, embedding.ErrConfig)
		}
		opts = append(opts,
			azure.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/"), cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
		log = log.With("endpoint", cfg.Endpoint, "deployment", cfg.Model)
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		log = log.With("model", cfg.Model)
	}

	log.Info("Embedding client created")
	return &Client{
		api:       openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		log:       log,
	}, nil
}

func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyText
	}
	log := c.log.With("traceId", utils.GetTraceId(ctx))

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		code := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			code = apiErr.StatusCode
		}
		log.Error("Error getting embedding", "status", code, "error", err)
		return nil, embedding.Wrap(providerName, code, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty embedding response", providerName, embedding.ErrTransient)
	}
	values := resp.Data[0].Embedding
	if c.dimension > 0 && len(values) != c.dimension {
		return nil, fmt.Errorf("%s: %w: got %d dimensions, configured %d", providerName, embedding.ErrConfig, len(values), c.dimension)
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}

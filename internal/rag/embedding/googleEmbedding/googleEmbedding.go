package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const providerName = "google_embedding"

type Config struct {
	APIKey    string
	Model     string
	Dimension int
	// BaseURL overrides the Gemini endpoint, used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	log       *logger_i.Logger
}

var _ embedding.Embedder = (*client)(nil)

func NewGoogleEmbedder(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: api key is empty", providerName, embedding.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: %w: model is empty", providerName, embedding.ErrConfig)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", providerName, embedding.ErrConfig, err)
	}

	log := logger_i.NewLogger("google_embedding").With("model", cfg.Model)
	log.Info("Google Embedding client created")
	return &client{
		genAi:     c,
		model:     cfg.Model,
		dimension: int32(cfg.Dimension),
		log:       log,
	}, nil
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyText
	}
	log := c.log.With("traceId", utils.GetTraceId(ctx))

	conf := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if c.dimension > 0 {
		conf.OutputDimensionality = &c.dimension
	}

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), conf)
	if err != nil {
		code := statusCode(err)
		if code == http.StatusTooManyRequests {
			log.Error("Rate limit hit! ", "error", err)
		} else {
			log.Error("Error getting Embedding from Google", "status", code, "error", err)
		}
		return nil, embedding.Wrap(providerName, code, err)
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("%s: %w: empty embedding response", providerName, embedding.ErrTransient)
	}
	return result.Embeddings[0].Values, nil
}

// statusCode pulls an HTTP status out of a genai error. The grpc branch
// covers errors surfaced by the Vertex transport.
func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return http.StatusTooManyRequests
		case codes.Unavailable, codes.Internal:
			return http.StatusServiceUnavailable
		case codes.DeadlineExceeded:
			return http.StatusGatewayTimeout
		case codes.Unauthenticated:
			return http.StatusUnauthorized
		case codes.PermissionDenied:
			return http.StatusForbidden
		case codes.NotFound:
			return http.StatusNotFound
		case codes.InvalidArgument:
			return http.StatusBadRequest
		}
	}
	return 0
}

package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

// WithRateLimit throttles calls to perSecond requests. A non-positive rate
// returns e unchanged.
func WithRateLimit(e Embedder, perSecond float64) Embedder {
	if perSecond <= 0 {
		return e
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedEmbedder{
		next:    e,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *rateLimitedEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for embedding rate limit: %w", err)
	}
	return r.next.GetEmbedding(ctx, text)
}

// Decorate applies the rate limit under the retry policy, so a retried call
// waits for the limiter like any other.
func Decorate(e Embedder, policy RetryPolicy, perSecond float64) Embedder {
	return WithRetry(WithRateLimit(e, perSecond), policy)
}

package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

// RetryPolicy decides how often a transient embedding failure is retried.
type RetryPolicy interface {
	MaxAttempts() int
	// Backoff is the wait before attempt+1, attempt starting at 1.
	Backoff(attempt int) time.Duration
}

// NoRetry makes a single attempt.
type NoRetry struct{}

func (NoRetry) MaxAttempts() int { return 1 }

func (NoRetry) Backoff(int) time.Duration { return 0 }

// ExponentialBackoff waits BaseDelay * 2^(attempt-1), capped at MaxDelay.
type ExponentialBackoff struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (b ExponentialBackoff) MaxAttempts() int {
	if b.Attempts < 1 {
		return 1
	}
	return b.Attempts
}

func (b ExponentialBackoff) Backoff(attempt int) time.Duration {
	delay := b.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if b.MaxDelay > 0 && delay >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		return b.MaxDelay
	}
	return delay
}

// NewRetryPolicy returns NoRetry for a single attempt.
func NewRetryPolicy(attempts int, base, max time.Duration) RetryPolicy {
	if attempts <= 1 {
		return NoRetry{}
	}
	return ExponentialBackoff{Attempts: attempts, BaseDelay: base, MaxDelay: max}
}

type retryingEmbedder struct {
	next   Embedder
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	log    *logger_i.Logger
}

// WithRetry retries ErrTransient failures of e according to policy.
// Every other error is returned after the first attempt.
func WithRetry(e Embedder, policy RetryPolicy) Embedder {
	if policy == nil {
		policy = NoRetry{}
	}
	return &retryingEmbedder{
		next:   e,
		policy: policy,
		sleep:  sleepCtx,
		log:    logger_i.NewLogger("embedding_retry"),
	}
}

func (r *retryingEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	maxAttempts := r.policy.MaxAttempts()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := r.next.GetEmbedding(ctx, text)
		if err == nil {
			if attempt > 1 {
				r.log.Debug("embedding succeeded after retry", "attempt", attempt, "traceId", utils.GetTraceId(ctx))
			}
			return vec, nil
		}
		lastErr = err

		if !errors.Is(err, ErrTransient) || attempt == maxAttempts {
			break
		}

		delay := r.policy.Backoff(attempt)
		r.log.Warn("transient embedding failure, retrying", "attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "error", err, "traceId", utils.GetTraceId(ctx))
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

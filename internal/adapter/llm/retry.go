package llm

import (
	"context"
	"errors"
	"time"

	"quizbench/internal/domain"
)

const defaultMaxAttempts = 3

// retryPolicy bounds the attempts of a single Send call. Backoff is
// exponential starting at baseDelay and capped at maxDelay. Permanent
// provider errors (bad request, auth, forbidden, not found) are never
// retried; only rate limits, 5xx and transport failures are.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, maxDelay time.Duration) retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		maxDelay:    maxDelay,
	}
}

// execute runs attempt until it succeeds, fails permanently, or the
// retry budget is exhausted. The last error is returned as-is so the
// engine can always reach the root cause.
func (p retryPolicy) execute(ctx context.Context, attempt func() error) error {
	delay := p.baseDelay
	var lastErr error
	for i := 0; i < p.maxAttempts; i++ {
		lastErr = attempt()
		if lastErr == nil {
			return nil
		}

		var perr *domain.ProviderError
		if !errors.As(lastErr, &perr) || !perr.Retryable() {
			return lastErr
		}
		if i == p.maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
	return lastErr
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/logger"
)

// RetryPolicy retries an external call a bounded number of times with a
// fixed delay between attempts.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Delay is the pause between attempts.
	Delay time.Duration

	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultRetryPolicy matches the provider defaults in config.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 2 * time.Second, Timeout: 60 * time.Second}

// permanent errors are returned immediately without retrying.
var permanent = []error{
	domain.ErrInvalidInput,
	domain.ErrMissingCredential,
	domain.ErrDimensionMismatch,
	domain.ErrLLMUnavailable,
	domain.ErrEmbeddingUnavailable,
}

// Do runs fn until it succeeds, returns a permanent error, the context is
// cancelled, or the attempts are exhausted. Exhaustion is reported as
// domain.ErrCallFailed wrapping the last error.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = p.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isPermanent(lastErr) {
			return lastErr
		}

		logger.Debug("%s: attempt %d/%d failed: %v", op, attempt, attempts, lastErr)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: %w after %d attempts: %w", op, domain.ErrCallFailed, attempts, lastErr)
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(attemptCtx)
}

func isPermanent(err error) bool {
	for _, target := range permanent {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

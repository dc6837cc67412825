package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Policy controls how transient failures are retried.
// MaxRetries is the number of additional attempts after the first failure.
// BaseDelay is the delay before the first retry, doubled on each subsequent retry.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *slog.Logger
}

// Do runs fn, retrying with exponential backoff and jitter while the error is
// retryable. The last error is returned once retries are exhausted.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !isRetryable(err) {
		return v, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		if p.Logger != nil {
			p.Logger.Warn("retrying after transient error",
				"op", op,
				"attempt", attempt,
				"max_retries", p.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		v, err = fn(ctx)
		if err == nil || !isRetryable(err) {
			return v, err
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, feed parse of a truncated body) are retryable.
	return true
}

// RetryFetcher is a decorator that retries transient feed failures before
// giving up on the cycle.
type RetryFetcher struct {
	inner  model.EntryFetcher
	policy Policy
	name   string
}

// NewRetryFetcher wraps a feed fetcher with retry logic.
func NewRetryFetcher(inner model.EntryFetcher, name string, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		name:   name,
		policy: Policy{MaxRetries: maxRetries, BaseDelay: baseDelay, Logger: logger},
	}
}

// FetchEntries fetches the feed, retrying transient failures.
func (f *RetryFetcher) FetchEntries(ctx context.Context) ([]model.Entry, error) {
	return Do(ctx, f.policy, "fetch "+f.name, f.inner.FetchEntries)
}

// RetryGenerator retries transient text-generation failures such as provider
// rate limits.
type RetryGenerator struct {
	inner  model.Generator
	policy Policy
}

// NewRetryGenerator wraps a generator with retry logic.
func NewRetryGenerator(inner model.Generator, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryGenerator {
	return &RetryGenerator{
		inner:  inner,
		policy: Policy{MaxRetries: maxRetries, BaseDelay: baseDelay, Logger: logger},
	}
}

// Complete calls the wrapped generator, retrying transient failures.
func (g *RetryGenerator) Complete(ctx context.Context, req model.GenerateRequest) (string, error) {
	return Do(ctx, g.policy, "generate", func(ctx context.Context) (string, error) {
		return g.inner.Complete(ctx, req)
	})
}

package scraper

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pharmawatch/eofscraper/internal/metrics"
)

// RetryingFetcher wraps a Fetcher with a RetryPolicy. A transient failure
// is retried with backoff; retry exhaustion surfaces a *FetchError.
type RetryingFetcher struct {
	inner  Fetcher
	policy RetryPolicy
	pause  PauseFunc
	logger *zap.Logger
}

// NewRetryingFetcher builds a retrying wrapper around inner.
func NewRetryingFetcher(inner Fetcher, policy RetryPolicy, logger *zap.Logger) *RetryingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingFetcher{
		inner:  inner,
		policy: policy,
		pause:  Pause,
		logger: logger,
	}
}

// WithPause replaces the backoff wait, primarily for tests.
func (f *RetryingFetcher) WithPause(pause PauseFunc) *RetryingFetcher {
	f.pause = pause
	return f
}

// Fetch retrieves url, retrying per the policy.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	for attempt := 1; ; attempt++ {
		html, err := f.inner.Fetch(ctx, url)
		if err == nil {
			metrics.PageFetched("success")
			return html, nil
		}
		if !f.policy.ShouldRetry(err, attempt) {
			metrics.PageFetched("error")
			fetchErr := &FetchError{URL: url, Attempts: attempt, Err: err}
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) {
				fetchErr.StatusCode = statusErr.Code
			}
			return "", fetchErr
		}
		delay := f.policy.Backoff(attempt)
		f.logger.Warn("page fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		f.pause(ctx, delay)
	}
}

package marketdata

import (
	"context"
	"time"

	"Augur_1.0/backend/go/pkg/retry"
)

// RetryingProvider runs another Provider's calls under the shared
// retry executor, so transient upstream failures (429, 5xx, transport
// errors) are retried with backoff instead of aborting the caller's
// cycle. Permanent errors such as unknown symbols propagate on the
// first attempt.
type RetryingProvider struct {
	next Provider
	exec *retry.Executor
}

// NewRetryingProvider wraps next with exec.
func NewRetryingProvider(next Provider, exec *retry.Executor) *RetryingProvider {
	return &RetryingProvider{next: next, exec: exec}
}

func (r *RetryingProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	res, err := r.exec.Do(ctx, func() (interface{}, error) {
		return r.next.CurrentPrice(ctx, symbol)
	})
	if err != nil {
		return 0, err
	}
	return res.(float64), nil
}

func (r *RetryingProvider) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]PricePoint, error) {
	res, err := r.exec.Do(ctx, func() (interface{}, error) {
		return r.next.PriceHistory(ctx, symbol, start, end, interval)
	})
	if err != nil {
		return nil, err
	}
	return res.([]PricePoint), nil
}

var _ Provider = (*RetryingProvider)(nil)

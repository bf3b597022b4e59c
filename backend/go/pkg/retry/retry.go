package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// Class labels an error for retry purposes.
type Class int

const (
	// Transient errors (rate limits, 5xx, transport failures, timeouts)
	// are retried with backoff.
	Transient Class = iota
	// Permanent errors (malformed requests, auth failures, parse errors)
	// propagate immediately without consuming the retry budget.
	Permanent
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// classified wraps an error with an explicit retry class.
type classified struct {
	err   error
	class Class
}

func (c *classified) Error() string { return c.err.Error() }
func (c *classified) Unwrap() error { return c.err }

// MarkTransient tags err as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &classified{err: err, class: Transient}
}

// MarkPermanent tags err as not retryable.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &classified{err: err, class: Permanent}
}

// Classifier decides the retry class of an error.
type Classifier func(error) Class

// DefaultClassifier honors explicit Mark* tags, treats timeouts and
// network-level failures as transient, and everything else as permanent.
func DefaultClassifier(err error) Class {
	var c *classified
	if errors.As(err, &c) {
		return c.class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Permanent
}

// Policy holds the backoff configuration for an Executor.
type Policy struct {
	MaxAttempts int           // Total attempts, including the first call.
	MinDelay    time.Duration // Lower bound of the backoff delay.
	MaxDelay    time.Duration // Upper bound of the backoff delay.
	Multiplier  float64       // Growth factor between attempts.
	Jitter      float64       // Random perturbation as a fraction of the delay, e.g. 0.25.
}

// DefaultPolicy mirrors the service-wide retry settings:
// 5 attempts, exponential backoff bounded to [4s, 60s] with jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		MinDelay:    4 * time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2,
		Jitter:      0.25,
	}
}

// Executor runs fallible calls under a retry policy.
type Executor struct {
	policy   Policy
	classify Classifier
}

// New creates an Executor. A nil classifier falls back to DefaultClassifier.
func New(policy Policy, classify Classifier) *Executor {
	if classify == nil {
		classify = DefaultClassifier
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier <= 1 {
		policy.Multiplier = 2
	}
	return &Executor{policy: policy, classify: classify}
}

// Do runs fn until it succeeds, returns a permanent error, the attempt
// budget is exhausted, or ctx is canceled. Only transient errors consume
// more than one attempt.
func (e *Executor) Do(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}
		if e.classify(err) == Permanent {
			return nil, err
		}
		lastErr = err
		if attempt >= e.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.delay(attempt)):
		}
	}
	return nil, lastErr
}

// delay computes the backoff for the given attempt number (1-based),
// clamped to [MinDelay, MaxDelay] before jitter is applied.
func (e *Executor) delay(attempt int) time.Duration {
	d := float64(e.policy.MinDelay)
	for i := 1; i < attempt; i++ {
		d *= e.policy.Multiplier
		if d >= float64(e.policy.MaxDelay) {
			d = float64(e.policy.MaxDelay)
			break
		}
	}
	if e.policy.Jitter > 0 {
		// Perturb within ±Jitter of the base delay to avoid retry storms.
		f := 1 + e.policy.Jitter*(2*rand.Float64()-1)
		d *= f
	}
	if d < float64(e.policy.MinDelay) {
		d = float64(e.policy.MinDelay)
	}
	if d > float64(e.policy.MaxDelay) {
		d = float64(e.policy.MaxDelay)
	}
	return time.Duration(d)
}

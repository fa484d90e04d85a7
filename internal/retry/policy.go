// Package retry implements the exponential-backoff retry policy of
// spec.md §4.1: up to R attempts per keyword-fetch, waiting 2^attempt
// seconds between attempts, never retrying auth failures.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/MaxShih147/brew-signal/internal/collector"
)

// Policy configures the retry loop.
type Policy struct {
	MaxAttempts int     // R
	BaseSeconds float64 // base of the 2^attempt backoff; spec default 1
	Sleep       func(context.Context, time.Duration) error
}

// NewPolicy builds a Policy with the default, context-aware sleep.
func NewPolicy(maxAttempts int, baseSeconds float64) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseSeconds: baseSeconds,
		Sleep:       ctxSleep,
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to MaxAttempts times. A result classed ErrAuth is never
// retried regardless of remaining attempts. Between attempts it sleeps
// 2^attempt * BaseSeconds (attempt is 1-indexed, so the first retry
// waits 2*base, matching spec.md §4.1's "between attempts wait
// 2^attempt seconds"). The final attempt's result (success or failure)
// is always returned, even if retries are exhausted.
func (p Policy) Do(ctx context.Context, fn func(attempt int) (collector.FetchResult, error)) (collector.FetchResult, error) {
	var last collector.FetchResult
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res, err := fn(attempt)
		last, lastErr = res, err

		if err != nil {
			return res, err
		}
		if !res.IsFailure() {
			return res, nil
		}
		if !res.Failure.Kind.Retryable() {
			return res, nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		wait := time.Duration(math.Pow(2, float64(attempt)) * p.BaseSeconds * float64(time.Second))
		if err := p.Sleep(ctx, wait); err != nil {
			return res, err
		}
	}
	return last, lastErr
}

package heartbeat

import (
	"context"
	"time"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// RetryPolicy bounds one logical heartbeat exchange.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts.
	// Default: 8
	MaxAttempts int

	// BaseDelay is multiplied by the attempt index to get the wait before
	// that attempt. The first attempt is immediate.
	// Default: 1 second
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the policy used against the agent.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 8,
		BaseDelay:   time.Second,
	}
}

// Delay returns the wait before the zero-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It returns the number of attempts made. Exhaustion is
// reported as RETRY_EXHAUSTED wrapping the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var last error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if d := p.Delay(attempt); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, sdkerrors.Wrap(ctx.Err(), "retry aborted")
			case <-timer.C:
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}
		if !sdkerrors.IsRetryable(err) {
			return attempt + 1, err
		}
		last = err
	}

	return maxAttempts, sdkerrors.RetryExhausted(maxAttempts, last)
}

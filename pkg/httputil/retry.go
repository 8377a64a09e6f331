package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient. After, when positive,
// overrides the backoff delay before the next attempt.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // Total attempts, at least 1
	Delay    time.Duration // Delay before the second attempt
	MaxDelay time.Duration // Ceiling for the doubled delay; zero means none
}

// DefaultBackoff makes three attempts starting at one second.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. It returns the last error, or ctx.Err() if ctx
// ends while waiting.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var lastErr error
	for i := range attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(lastErr, &re) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return lastErr
}

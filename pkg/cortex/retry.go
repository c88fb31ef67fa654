package cortex

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy controls how failed requests are retried with exponential
// backoff. Only transient failures retry: transport errors, 429, and the 5xx
// family. A canceled context is never retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns the policy new clients start with:
// 3 attempts, 500ms initial delay, 2x multiplier, 10s max delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Second,
	}
}

// retryable classifies an error. Status errors retry only when another
// attempt could plausibly succeed; anything else (DNS failures, connection
// resets) defaults to retryable.
func (p *RetryPolicy) retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	return true
}

// NextDelay returns the backoff delay after the given attempt (1-indexed),
// capped at MaxDelay.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Execute runs fn up to MaxAttempts times, sleeping between attempts. It
// returns nil on the first success, the error unchanged when it is not
// retryable, and the last error once attempts are exhausted or ctx ends
// while waiting.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.retryable(err) || attempt == p.MaxAttempts {
			return lastErr
		}

		delay := p.NextDelay(attempt)
		slog.Debug("retrying request", "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

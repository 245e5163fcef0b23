// Package retry wraps a single API call with exponential-backoff retry.
//
// Retry is uniform across error categories: rate limits, network
// failures, and even authentication errors are retried the same way up
// to the configured count. After the retries are exhausted, the last
// error is propagated unchanged so callers can still categorize it.

package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/richinex/chimera/errlog"
	"github.com/richinex/chimera/llm"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = time.Second
	// DefaultMultiplier is the backoff growth factor.
	DefaultMultiplier = 2.0
)

// Policy holds backoff parameters. MaxRetries counts retries, not
// attempts: a call may execute up to MaxRetries+1 times.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultPolicy returns the standard policy (3 retries, 1s base, x2).
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Delay returns the backoff before retrying after the given zero-based
// attempt: BaseDelay * Multiplier^attempt.
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
}

// Do runs fn, retrying per the policy. Every failed attempt is appended
// to log (with the attempt number and computed delay) before the backoff
// sleep begins. Context cancellation aborts the sleep and returns the
// context error.
func (p Policy) Do(ctx context.Context, log *errlog.Log, callContext string, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if attempt >= p.MaxRetries {
			// Exhausted: propagate the last error unchanged.
			return err
		}

		delay := p.Delay(attempt)
		if log != nil {
			category := llm.Categorize("", err).Category
			log.Append(category, err.Error(),
				fmt.Sprintf("%s: attempt %d failed, retrying in %s", callContext, attempt, delay))
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

package client

import (
	"context"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/constants"
)

// DoWithRetry runs fn with exponential backoff: constants.RetryAttempts
// attempts, starting at constants.RetryInitialDelay and doubling after each
// failure. The final error is returned after attempts are exhausted; this
// is the one path where an error is allowed to propagate to the caller.
//
// Heartbeat and inactivity calls deliberately do not go through this
// helper; they report failure and wait for their next scheduled tick.
func DoWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retryWithBackoff(ctx, constants.RetryAttempts, constants.RetryInitialDelay, fn)
}

func retryWithBackoff(ctx context.Context, attempts int, initialDelay time.Duration, fn func(ctx context.Context) error) error {
	delay := initialDelay

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

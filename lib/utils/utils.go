package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/artie-labs/transfer/lib/jitter"
)

// AlwaysRetry can be passed to [WithJitteredRetries] to retry every error.
func AlwaysRetry(_ error) bool {
	return true
}

// WithJitteredRetries calls f until it succeeds, shouldRetry rejects the error, ctx is done or
// maxAttempts is reached. The last error is returned.
func WithJitteredRetries[T any](ctx context.Context, baseMs, maxMs, maxAttempts int, shouldRetry func(error) bool, f func(attempt int) (T, error)) (T, error) {
	maxAttempts = max(maxAttempts, 1)
	var result T
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if !shouldRetry(err) {
				return result, err
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}

			sleepDuration := jitter.Jitter(baseMs, maxMs, attempt+1)
			slog.Info("An error occurred, retrying after delay...",
				slog.Duration("sleep", sleepDuration),
				slog.Any("attemptsLeft", maxAttempts-attempt),
				slog.Any("err", err),
			)

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}
		result, err = f(attempt)
		if err == nil {
			return result, nil
		}
	}
	return result, err
}

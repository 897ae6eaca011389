package utils

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithJitteredRetries(t *testing.T) {
	ctx := context.Background()
	{
		// 0 max attempts - still runs
		calls := 0
		value, err := WithJitteredRetries(ctx, 0, 0, 0, AlwaysRetry, func(attempt int) (int, error) {
			calls++
			return 100, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 100, value)
		assert.Equal(t, 1, calls)
	}
	{
		// 1 max attempts - fails
		calls := 0
		_, err := WithJitteredRetries(ctx, 0, 0, 1, AlwaysRetry, func(attempt int) (int, error) {
			calls++
			return 0, fmt.Errorf("oops I failed again")
		})
		assert.ErrorContains(t, err, "oops I failed again")
		assert.Equal(t, 1, calls)
	}
	{
		// 2 max attempts - first fails and second succeeds
		calls := 0
		value, err := WithJitteredRetries(ctx, 1, 1, 2, AlwaysRetry, func(attempt int) (int, error) {
			calls++
			if attempt == 0 {
				return 0, fmt.Errorf("oops I failed again")
			}
			return 100, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 100, value)
		assert.Equal(t, 2, calls)
	}
	{
		// Non-retryable error - stops after the first attempt
		calls := 0
		_, err := WithJitteredRetries(ctx, 1, 1, 5, func(error) bool { return false }, func(attempt int) (int, error) {
			calls++
			return 0, fmt.Errorf("fatal")
		})
		assert.ErrorContains(t, err, "fatal")
		assert.Equal(t, 1, calls)
	}
	{
		// Cancelled context - stops before sleeping
		cancelledCtx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		_, err := WithJitteredRetries(cancelledCtx, 1000, 1000, 5, AlwaysRetry, func(attempt int) (int, error) {
			calls++
			return 0, fmt.Errorf("oops")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	}
}

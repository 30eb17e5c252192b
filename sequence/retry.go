package sequence

import (
	"context"
	"time"
)

// retryWithBackoff calls fn up to attempts times, doubling the delay after
// each failure. Only storage errors are retried.
func retryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !IsStorageError(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(baseDelay * time.Duration(1<<uint(attempt)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// ABOUTME: Retry helpers for capability calls with exponential backoff
// ABOUTME: Do retries a call until it succeeds, fails permanently, or the context ends
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps a single wait between attempts
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter.
// The base delay doubles each attempt and is jittered by up to 25% either way.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	attempt = min(attempt, 30)

	backoff := MaxBackoff
	if baseDelay < MaxBackoff>>uint(attempt) {
		backoff = baseDelay << uint(attempt)
	}
	if backoff < 2 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Do calls fn up to maxRetries+1 times. It stops early when fn succeeds, when
// retryable reports false for its error, or when ctx is done. A nil retryable
// retries every error.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.NewTimer(CalculateBackoff(baseDelay, attempt))
			select {
			case <-ctx.Done():
				wait.Stop()
				return fmt.Errorf("gave up after %d attempts: %w", attempt, lastErr)
			case <-wait.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)

		if ctx.Err() != nil || (retryable != nil && !retryable(err)) {
			return lastErr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr)
}

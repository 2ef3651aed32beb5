package resilience

import (
	"context"
	"time"
)

// RetryLinear calls fn up to retries+1 times, sleeping base*n before the n-th retry.
// Only errors accepted by retryable are retried; a nil retryable retries everything.
func RetryLinear(ctx context.Context, retries int, base time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(base * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}

package util

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

func Retry[T any](f func() (T, error), maxRetries int, d time.Duration) (v T, err error) {
	return RetryContext(context.Background(), func(context.Context) (T, error) { return f() }, maxRetries, d)
}

// RetryContext calls f until it succeeds, maxRetries retries failed or ctx is
// done. Failed attempts are logged to the logger of ctx.
func RetryContext[T any](ctx context.Context, f func(context.Context) (T, error), maxRetries int, d time.Duration) (v T, err error) {
	for i := 0; i <= maxRetries; i++ {
		if v, err = f(ctx); err == nil {
			return v, nil
		} else if i == maxRetries {
			break
		}
		Logger(ctx).Debug("retrying", zap.Int("attempt", i+1), zap.Duration("delay", d), zap.Error(err))
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return *new(T), ctx.Err()
		case <-t.C:
		}
	}
	return v, fmt.Errorf("max retries reached: %w", err)
}

package resilience

import (
	"context"
	"time"
)

// WithTimeout runs fn under a deadline derived from ctx. A zero or negative
// timeout runs fn with ctx unchanged. The dialog manager wraps every delegate
// and sink call this way so a hung dependency cannot stall a live call.
func WithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// WithTimeoutResult is the value-returning variant of [WithTimeout].
func WithTimeoutResult[R any](ctx context.Context, timeout time.Duration, fn func(context.Context) (R, error)) (R, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

package probe

import (
	"context"
	"time"
)

// RetryChecker wraps a Checker with a retry-then-declare-down policy: up to
// Attempts tries with a fixed Backoff between them, returning on the first
// success. A target is down only when every attempt failed.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	last.Message = last.Message + " (after retries)"
	return last
}

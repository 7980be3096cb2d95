package services

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

const attemptTimeout = 5 * time.Second

// pollUntilReady calls attempt every interval until it succeeds or timeout elapses.
// It returns the last attempt error alongside the polling error.
func pollUntilReady(ctx context.Context, interval, timeout time.Duration, attempt func(ctx context.Context) error) (lastErr error, err error) {
	err = wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, min(attemptTimeout, timeout))
		defer cancel()
		if aerr := attempt(attemptCtx); aerr != nil {
			lastErr = aerr
			return false, nil
		}
		return true, nil
	})
	return lastErr, err
}

package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Retrier configures retries for an operation.
type Retrier struct {
	// HandleError is called after each operation retry.
	// If it returns an error, the operation is not retried
	// and that error is returned. This is useful for special
	// error handling, for example, for non retryable errors.
	// If HandleError is nil, the operation is always retried.
	HandleError HandleError
	// Timeout is the maximum time for the complete retry loop.
	// If zero, the operation is retried indefinitely until either
	// the backoff reaches its limit (if configured to do so) or
	// the context is cancelled.
	Timeout time.Duration
	// OperationTimeout bounds every single attempt. Zero means no bound.
	OperationTimeout time.Duration
	// Backoff is the backoff configuration for the retry loop.
	Backoff Backoff
}

type (
	Backoff     wait.Backoff
	HandleError func(error) error
	// Operation is a process that can be retried.
	// It returns a boolean indicating if the operation is done.
	// Errors might be retried.
	Operation func(context.Context) (done bool, err error)
)

// Do retries an operation until it succeeds, max timeout is reached or context is cancelled.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	if r.Timeout != 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	backoff := wait.Backoff(r.Backoff)
	if r.Backoff.Steps == 0 {
		// wait.ExponentialBackoffWithContext stops at zero steps,
		// zero means no limit here.
		backoff.Steps = math.MaxInt
	}

	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		done, err := r.attempt(ctx, op)
		if err != nil {
			lastErr = err
		}
		if r.HandleError != nil {
			if err = r.HandleError(err); err != nil {
				return false, err
			}
		}

		// done with an error that HandleError chose to retry is not done.
		return done && err == nil, nil
	})

	// Context cancelled, timeout or backoff exhausted: surface the last
	// operation error so the caller knows what was being retried.
	if wait.Interrupted(err) && lastErr != nil {
		return fmt.Errorf("%s while retrying: %w", err, lastErr)
	}

	return err
}

func (r *Retrier) attempt(ctx context.Context, op Operation) (bool, error) {
	if r.OperationTimeout == 0 {
		return op(ctx)
	}
	opCtx, cancel := context.WithTimeout(ctx, r.OperationTimeout)
	defer cancel()
	return op(opCtx)
}

// RetrierOption is a function that modifies a Retrier.
// Generally only for tests.
type RetrierOption func(*Retrier)

// WithTimeout sets the timeout for the retrier.
func WithTimeout(timeout time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.Timeout = timeout
	}
}

// WithBackoffDuration sets the backoff duration for the retrier.
func WithBackoffDuration(duration time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.Backoff.Duration = duration
	}
}

// WithMaxAttempts stops retrying after attempts operation runs.
func WithMaxAttempts(attempts int) RetrierOption {
	return func(r *Retrier) {
		r.Backoff.Steps = attempts
	}
}

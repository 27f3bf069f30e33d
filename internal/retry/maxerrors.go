package retry

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// NewMaxConsecutiveErrorHandler tolerates up to maxAttempts consecutive errors.
// A nil error resets the count.
func NewMaxConsecutiveErrorHandler(maxAttempts int) HandleError {
	attempts := 0
	return func(err error) error {
		if err == nil {
			attempts = 0
		} else {
			attempts++
		}

		if attempts <= maxAttempts {
			return nil
		}
		return fmt.Errorf("max attempts %d reached: %w", maxAttempts, err)
	}
}

// NewRateLimitedErrorHandler tolerates at most maxErrors errors per window.
// Budget is refilled continuously, so a steady trickle of errors below the rate
// is absorbed forever while a burst above it escalates.
// Nil errors are ignored. The returned handler is not safe for concurrent use.
func NewRateLimitedErrorHandler(maxErrors int, window time.Duration) HandleError {
	if maxErrors <= 0 || window <= 0 {
		return func(err error) error {
			if err == nil {
				return nil
			}
			return fmt.Errorf("no error budget configured: %w", err)
		}
	}
	limiter := rate.NewLimiter(rate.Every(window/time.Duration(maxErrors)), maxErrors)
	return func(err error) error {
		if err == nil {
			return nil
		}
		if limiter.Allow() {
			return nil
		}
		return fmt.Errorf("more than %d errors in %s: %w", maxErrors, window, err)
	}
}

package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/canaryports/canaryports/internal/retry"
)

var (
	errXtablesLock  = errors.New("another app is currently holding the xtables lock")
	errNonRetryable = errors.New("non-retryable error")
)

type flakyCommand struct {
	runs      int
	succeedAt int
	err       error
}

func (f *flakyCommand) run(ctx context.Context) (bool, error) {
	f.runs++
	if f.succeedAt > 0 && f.runs >= f.succeedAt {
		return true, nil
	}
	return false, f.err
}

func TestRetrierDo(t *testing.T) {
	tests := []struct {
		name        string
		retrier     retry.Retrier
		cmd         *flakyCommand
		wantRuns    int
		expectedErr string
	}{
		{
			name: "succeeds on first run",
			retrier: retry.Retrier{
				Timeout: 100 * time.Millisecond,
				Backoff: retry.Backoff{Duration: time.Millisecond, Steps: 5, Factor: 1.0},
			},
			cmd:      &flakyCommand{succeedAt: 1},
			wantRuns: 1,
		},
		{
			name: "succeeds once the lock is released",
			retrier: retry.Retrier{
				Timeout: 100 * time.Millisecond,
				Backoff: retry.Backoff{Duration: time.Millisecond, Steps: 5, Factor: 1.0},
			},
			cmd:      &flakyCommand{succeedAt: 3, err: errXtablesLock},
			wantRuns: 3,
		},
		{
			name: "stops after the configured steps",
			retrier: retry.Retrier{
				Timeout: 100 * time.Millisecond,
				Backoff: retry.Backoff{Duration: time.Millisecond, Steps: 2, Factor: 1.0},
			},
			cmd:         &flakyCommand{err: errXtablesLock},
			wantRuns:    2,
			expectedErr: "while retrying: " + errXtablesLock.Error(),
		},
		{
			name: "handle error aborts on non retryable errors",
			retrier: retry.Retrier{
				Timeout: 100 * time.Millisecond,
				Backoff: retry.Backoff{Duration: time.Millisecond, Steps: 5, Factor: 1.0},
				HandleError: func(err error) error {
					if err != nil {
						return errNonRetryable
					}
					return nil
				},
			},
			cmd:         &flakyCommand{err: errXtablesLock},
			wantRuns:    1,
			expectedErr: errNonRetryable.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			err := tt.retrier.Do(context.Background(), tt.cmd.run)
			if tt.expectedErr == "" {
				g.Expect(err).ToNot(HaveOccurred())
			} else {
				g.Expect(err).To(MatchError(ContainSubstring(tt.expectedErr)))
			}
			g.Expect(tt.cmd.runs).To(Equal(tt.wantRuns))
		})
	}
}

func TestRetrierDoTimeout(t *testing.T) {
	g := NewWithT(t)
	r := retry.Retrier{
		Timeout: 20 * time.Millisecond,
		Backoff: retry.Backoff{Duration: time.Millisecond, Factor: 1.0},
	}
	err := r.Do(context.Background(), (&flakyCommand{err: errXtablesLock}).run)
	g.Expect(err).To(MatchError(ContainSubstring(context.DeadlineExceeded.Error())))
	g.Expect(errors.Is(err, errXtablesLock)).To(BeTrue())
}

func TestRetrierDoOperationTimeout(t *testing.T) {
	g := NewWithT(t)
	r := retry.Retrier{
		OperationTimeout: 2 * time.Millisecond,
		Backoff:          retry.Backoff{Duration: time.Millisecond, Steps: 3, Factor: 1.0},
	}
	err := r.Do(context.Background(), func(ctx context.Context) (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return true, nil
		}
	})
	g.Expect(err).To(MatchError(ContainSubstring("context deadline exceeded")))
}

func TestRetrierOptions(t *testing.T) {
	g := NewWithT(t)
	r := retry.Retrier{}
	for _, opt := range []retry.RetrierOption{
		retry.WithTimeout(time.Second),
		retry.WithBackoffDuration(time.Millisecond),
		retry.WithMaxAttempts(4),
	} {
		opt(&r)
	}
	g.Expect(r.Timeout).To(Equal(time.Second))
	g.Expect(r.Backoff.Duration).To(Equal(time.Millisecond))
	g.Expect(r.Backoff.Steps).To(Equal(4))
}

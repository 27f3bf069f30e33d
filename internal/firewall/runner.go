package firewall

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/logger"
	"github.com/canaryports/canaryports/internal/retry"
)

const (
	commandTimeout   = 10 * time.Second
	commandBackoff   = 200 * time.Millisecond
	maxTransientRuns = 3
)

// transientMarkers identify failures caused by a concurrent holder of the
// firewall lock rather than by the command itself.
var transientMarkers = []string{
	"xtables lock",
	"Resource temporarily unavailable",
	"Another app is currently holding",
	"COMMAND_FAILED: 'python-nftables' failed",
}

// Runner executes a firewall tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// CommandError is returned when a firewall tool exits with an error.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("running command %s: %s [Err %s]", e.Args, strings.TrimSpace(e.Output), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the tool exit code, or -1 if it did not run to completion.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (e *CommandError) transient() bool {
	for _, marker := range transientMarkers {
		if strings.Contains(e.Output, marker) {
			return true
		}
	}
	return false
}

// ExecRunner runs commands with os/exec, retrying failures caused by lock
// contention with other firewall clients.
type ExecRunner struct {
	retrier retry.Retrier
}

// NewExecRunner returns an ExecRunner with sensible retry defaults.
func NewExecRunner(opts ...retry.RetrierOption) *ExecRunner {
	r := retry.Retrier{
		Timeout:          3 * commandTimeout,
		OperationTimeout: commandTimeout,
		Backoff: retry.Backoff{
			Duration: commandBackoff,
			Factor:   2,
			Jitter:   0.1,
			Steps:    maxTransientRuns + 1,
		},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return &ExecRunner{retrier: r}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	log := logger.FromContext(ctx)
	tolerate := retry.NewMaxConsecutiveErrorHandler(maxTransientRuns)

	retrier := r.retrier
	retrier.HandleError = func(err error) error {
		var cmdErr *CommandError
		if err == nil || !errors.As(err, &cmdErr) || !cmdErr.transient() {
			return err
		}
		log.Info("Firewall busy, retrying", zap.Strings("command", cmdErr.Args), zap.Error(err))
		return tolerate(err)
	}

	log.Debug("Running firewall command", zap.String("command", name), zap.Strings("args", args))
	var out []byte
	err := retrier.Do(ctx, func(ctx context.Context) (bool, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		var err error
		out, err = cmd.CombinedOutput()
		if err != nil {
			return false, &CommandError{Args: cmd.Args, Output: string(out), Err: err}
		}
		return true, nil
	})
	return out, err
}

// notInstalled reports whether err comes from a binary missing from PATH.
func notInstalled(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

// lookPath reports whether a binary is available in PATH.
func lookPath(bin string) (string, bool) {
	path, err := exec.LookPath(bin)
	return path, err == nil
}

package firewall

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	pkgerrors "github.com/pkg/errors"
)

const (
	FirewalldName = "firewalld"

	firewalldBinary = "firewall-cmd"

	runningButFailedExitCode = 251
	notRunningExitCode       = 252
)

var (
	_ Backend = &firewalld{}
	_ Manager = &firewalld{}
)

var firewalldActiveRegex = regexp.MustCompile(`.*running*`)

type firewalld struct {
	binPath string
	runner  Runner
}

// NewFirewalld returns a Backend adding drop rich rules to the default zone,
// both to the runtime and the permanent configuration.
func NewFirewalld(runner Runner) Backend {
	path, ok := lookPath(firewalldBinary)
	if !ok {
		path = firewalldBinary
	}
	return &firewalld{
		binPath: path,
		runner:  runner,
	}
}

func (fd *firewalld) Name() string { return FirewalldName }

// IsEnabled returns true if firewalld is installed and running
func (fd *firewalld) IsEnabled(ctx context.Context) (bool, error) {
	out, err := fd.runner.Run(ctx, fd.binPath, "--state")
	if err != nil {
		if notInstalled(err) {
			return false, nil
		}
		var cmdErr *CommandError
		// firewall-cmd returns non-zero exit codes for states other than running
		if errors.As(err, &cmdErr) {
			code := cmdErr.ExitCode()
			if code == runningButFailedExitCode || code == notRunningExitCode {
				return false, nil
			}
		}
		return false, err
	}
	return firewalldActiveRegex.Match(out), nil
}

func (fd *firewalld) BlockIPv4(ctx context.Context, addr string) error {
	return fd.apply(ctx, "--add-rich-rule", "ipv4", addr)
}

func (fd *firewalld) BlockIPv6(ctx context.Context, addr string) error {
	return fd.apply(ctx, "--add-rich-rule", "ipv6", addr)
}

func (fd *firewalld) UnblockIPv4(ctx context.Context, addr string) error {
	return fd.apply(ctx, "--remove-rich-rule", "ipv4", addr)
}

func (fd *firewalld) UnblockIPv6(ctx context.Context, addr string) error {
	return fd.apply(ctx, "--remove-rich-rule", "ipv6", addr)
}

// apply changes the runtime configuration and then the permanent one, so the
// rule survives a reload. firewall-cmd treats ALREADY_ENABLED and NOT_ENABLED
// as warnings and exits zero for them.
func (fd *firewalld) apply(ctx context.Context, op, family, addr string) error {
	rule := fmt.Sprintf("%s=rule family=%q source address=%q drop", op, family, addr)
	if _, err := fd.runner.Run(ctx, fd.binPath, rule); err != nil {
		return pkgerrors.Wrapf(err, "updating firewalld runtime rule for %s", addr)
	}
	if _, err := fd.runner.Run(ctx, fd.binPath, "--permanent", rule); err != nil {
		return pkgerrors.Wrapf(err, "updating firewalld permanent rule for %s", addr)
	}
	return nil
}

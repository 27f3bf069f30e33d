package firewall

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
)

const (
	UfwName = "ufw"

	ufwBinary = "ufw"
)

var (
	_ Backend = &UncomplicatedFireWall{}
	_ Manager = &UncomplicatedFireWall{}
)

var ufwActiveRegex = regexp.MustCompile(`.*Status: active*`)

// UncomplicatedFireWall blocks addresses with ufw deny rules placed ahead of
// any allow rule.
type UncomplicatedFireWall struct {
	binPath string
	runner  Runner
}

func NewUncomplicatedFirewall(runner Runner) *UncomplicatedFireWall {
	path, ok := lookPath(ufwBinary)
	if !ok {
		path = ufwBinary
	}
	return &UncomplicatedFireWall{
		binPath: path,
		runner:  runner,
	}
}

func (ufw *UncomplicatedFireWall) Name() string { return UfwName }

// IsEnabled returns true if ufw is installed and active
func (ufw *UncomplicatedFireWall) IsEnabled(ctx context.Context) (bool, error) {
	out, err := ufw.runner.Run(ctx, ufw.binPath, "status")
	if err != nil {
		if notInstalled(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to get status of uncomplicated firewall")
	}
	return ufwActiveRegex.Match(out), nil
}

func (ufw *UncomplicatedFireWall) BlockIPv4(ctx context.Context, addr string) error {
	return ufw.deny(ctx, addr)
}

func (ufw *UncomplicatedFireWall) BlockIPv6(ctx context.Context, addr string) error {
	return ufw.deny(ctx, addr)
}

func (ufw *UncomplicatedFireWall) UnblockIPv4(ctx context.Context, addr string) error {
	return ufw.deleteDeny(ctx, addr)
}

func (ufw *UncomplicatedFireWall) UnblockIPv6(ctx context.Context, addr string) error {
	return ufw.deleteDeny(ctx, addr)
}

// deny prepends the rule; ufw skips rules that already exist.
func (ufw *UncomplicatedFireWall) deny(ctx context.Context, addr string) error {
	if _, err := ufw.runner.Run(ctx, ufw.binPath, "prepend", "deny", "from", addr); err != nil {
		return errors.Wrapf(err, "failed to deny %s in firewall", addr)
	}
	return nil
}

func (ufw *UncomplicatedFireWall) deleteDeny(ctx context.Context, addr string) error {
	if _, err := ufw.runner.Run(ctx, ufw.binPath, "delete", "deny", "from", addr); err != nil {
		return errors.Wrapf(err, "failed to delete deny rule for %s", addr)
	}
	return nil
}

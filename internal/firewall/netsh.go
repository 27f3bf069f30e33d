package firewall

import (
	"context"

	"github.com/pkg/errors"
)

const (
	NetshName = "netsh"

	netshBinary     = "netsh"
	netshRulePrefix = "canaryports-"
)

// netsh manages one inbound block rule per address in Windows Defender Firewall.
type netsh struct {
	runner Runner
}

func NewNetsh(runner Runner) Backend {
	return &netsh{runner: runner}
}

func (n *netsh) Name() string { return NetshName }

func (n *netsh) BlockIPv4(ctx context.Context, addr string) error {
	return n.block(ctx, addr)
}

func (n *netsh) BlockIPv6(ctx context.Context, addr string) error {
	return n.block(ctx, addr)
}

func (n *netsh) UnblockIPv4(ctx context.Context, addr string) error {
	return n.unblock(ctx, addr)
}

func (n *netsh) UnblockIPv6(ctx context.Context, addr string) error {
	return n.unblock(ctx, addr)
}

func (n *netsh) block(ctx context.Context, addr string) error {
	if n.ruleExists(ctx, addr) {
		return nil
	}
	_, err := n.runner.Run(ctx, netshBinary, "advfirewall", "firewall", "add", "rule",
		"name="+ruleName(addr), "dir=in", "action=block", "remoteip="+addr)
	if err != nil {
		return errors.Wrapf(err, "adding windows firewall rule for %s", addr)
	}
	return nil
}

func (n *netsh) unblock(ctx context.Context, addr string) error {
	if !n.ruleExists(ctx, addr) {
		return nil
	}
	_, err := n.runner.Run(ctx, netshBinary, "advfirewall", "firewall", "delete", "rule", "name="+ruleName(addr))
	if err != nil {
		return errors.Wrapf(err, "deleting windows firewall rule for %s", addr)
	}
	return nil
}

// ruleExists relies on "show rule" exiting non-zero when no rule matches.
func (n *netsh) ruleExists(ctx context.Context, addr string) bool {
	_, err := n.runner.Run(ctx, netshBinary, "advfirewall", "firewall", "show", "rule", "name="+ruleName(addr))
	return err == nil
}

func ruleName(addr string) string {
	return netshRulePrefix + addr
}

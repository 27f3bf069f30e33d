package firewall

import (
	"context"

	"github.com/pkg/errors"
)

const (
	IptablesName = "iptables"

	iptablesBinary  = "iptables"
	ip6tablesBinary = "ip6tables"
	iptablesChain   = "INPUT"
	// lock wait in seconds, handed to iptables -w
	iptablesWait = "5"
)

type iptables struct {
	runner Runner
	chain  string
}

// NewIptables returns a Backend inserting DROP rules at the top of the INPUT
// chain, using iptables for IPv4 and ip6tables for IPv6.
func NewIptables(runner Runner) Backend {
	return &iptables{runner: runner, chain: iptablesChain}
}

func (ipt *iptables) Name() string { return IptablesName }

func (ipt *iptables) BlockIPv4(ctx context.Context, addr string) error {
	return ipt.block(ctx, iptablesBinary, addr)
}

func (ipt *iptables) BlockIPv6(ctx context.Context, addr string) error {
	return ipt.block(ctx, ip6tablesBinary, addr)
}

func (ipt *iptables) UnblockIPv4(ctx context.Context, addr string) error {
	return ipt.unblock(ctx, iptablesBinary, addr)
}

func (ipt *iptables) UnblockIPv6(ctx context.Context, addr string) error {
	return ipt.unblock(ctx, ip6tablesBinary, addr)
}

func (ipt *iptables) block(ctx context.Context, bin, addr string) error {
	if ipt.ruleExists(ctx, bin, addr) {
		return nil
	}
	if _, err := ipt.runner.Run(ctx, bin, ipt.ruleArgs("-I", addr)...); err != nil {
		return errors.Wrapf(err, "inserting %s drop rule for %s", bin, addr)
	}
	return nil
}

func (ipt *iptables) unblock(ctx context.Context, bin, addr string) error {
	if !ipt.ruleExists(ctx, bin, addr) {
		return nil
	}
	if _, err := ipt.runner.Run(ctx, bin, ipt.ruleArgs("-D", addr)...); err != nil {
		return errors.Wrapf(err, "deleting %s drop rule for %s", bin, addr)
	}
	return nil
}

// ruleExists runs iptables -C, which exits non-zero when the rule is absent.
func (ipt *iptables) ruleExists(ctx context.Context, bin, addr string) bool {
	_, err := ipt.runner.Run(ctx, bin, ipt.ruleArgs("-C", addr)...)
	return err == nil
}

func (ipt *iptables) ruleArgs(op, addr string) []string {
	return []string{"-w", iptablesWait, op, ipt.chain, "-s", addr, "-j", "DROP"}
}

package firewall

import (
	"context"

	"github.com/pkg/errors"
)

const (
	PfName = "pf"

	pfctlBinary = "pfctl"
	pfTable     = "canaryports"
)

// pf keeps blocked addresses in a persistent pf table. The ruleset is expected
// to reference it, e.g. "table <canaryports> persist" and
// "block drop in quick from <canaryports>".
type pf struct {
	runner Runner
	table  string
}

func NewPf(runner Runner) Backend {
	return &pf{runner: runner, table: pfTable}
}

func (p *pf) Name() string { return PfName }

func (p *pf) BlockIPv4(ctx context.Context, addr string) error {
	return p.tableOp(ctx, "add", addr)
}

func (p *pf) BlockIPv6(ctx context.Context, addr string) error {
	return p.tableOp(ctx, "add", addr)
}

func (p *pf) UnblockIPv4(ctx context.Context, addr string) error {
	return p.tableOp(ctx, "delete", addr)
}

func (p *pf) UnblockIPv6(ctx context.Context, addr string) error {
	return p.tableOp(ctx, "delete", addr)
}

func (p *pf) tableOp(ctx context.Context, op, addr string) error {
	if _, err := p.runner.Run(ctx, pfctlBinary, "-t", p.table, "-T", op, addr); err != nil {
		return errors.Wrapf(err, "pf table %s %s %s", p.table, op, addr)
	}
	return nil
}

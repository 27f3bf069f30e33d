package firewall

import (
	"context"

	"go.uber.org/zap"
)

const NoopName = "noop"

// noop only logs. It backs dry runs and hosts without a supported firewall.
type noop struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &noop{log: log}
}

func (n *noop) Name() string { return NoopName }

func (n *noop) BlockIPv4(_ context.Context, addr string) error {
	n.log.Info("Dry run, not blocking", zap.String("address", addr), zap.String("family", "ipv4"))
	return nil
}

func (n *noop) BlockIPv6(_ context.Context, addr string) error {
	n.log.Info("Dry run, not blocking", zap.String("address", addr), zap.String("family", "ipv6"))
	return nil
}

func (n *noop) UnblockIPv4(_ context.Context, addr string) error {
	n.log.Info("Dry run, not unblocking", zap.String("address", addr), zap.String("family", "ipv4"))
	return nil
}

func (n *noop) UnblockIPv6(_ context.Context, addr string) error {
	n.log.Info("Dry run, not unblocking", zap.String("address", addr), zap.String("family", "ipv6"))
	return nil
}

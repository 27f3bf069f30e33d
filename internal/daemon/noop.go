//go:build !linux

package daemon

import (
	"context"

	"go.uber.org/zap"
)

var _ Notifier = &noopNotifier{}

type noopNotifier struct{}

func NewNotifier() Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) Ready() error {
	return nil
}

func (n *noopNotifier) Stopping() error {
	return nil
}

func (n *noopNotifier) Status(msg string) error {
	return nil
}

func (n *noopNotifier) Watchdog(ctx context.Context, log *zap.Logger) {}

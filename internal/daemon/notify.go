// Package daemon reports service state to the init system.
package daemon

import (
	"context"

	"go.uber.org/zap"
)

// Notifier tells the service manager about the daemon lifecycle. Every method
// is a no-op when the process is not supervised.
type Notifier interface {
	// Ready signals that all canaries are listening.
	Ready() error
	// Stopping signals that shutdown has begun.
	Stopping() error
	// Status sets the free-form status line shown by the service manager.
	Status(msg string) error
	// Watchdog sends keep-alive pings until ctx is done, if the service
	// manager asked for them.
	Watchdog(ctx context.Context, log *zap.Logger)
}

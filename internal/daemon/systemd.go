//go:build linux

package daemon

import (
	"context"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

var _ Notifier = &systemdNotifier{}

type systemdNotifier struct{}

// NewNotifier returns a Notifier speaking the sd_notify protocol over
// $NOTIFY_SOCKET.
func NewNotifier() Notifier {
	return &systemdNotifier{}
}

func (n *systemdNotifier) notify(state string) error {
	_, err := sddaemon.SdNotify(false, state)
	return err
}

func (n *systemdNotifier) Ready() error {
	return n.notify(sddaemon.SdNotifyReady)
}

func (n *systemdNotifier) Stopping() error {
	return n.notify(sddaemon.SdNotifyStopping)
}

func (n *systemdNotifier) Status(msg string) error {
	return n.notify("STATUS=" + msg)
}

func (n *systemdNotifier) Watchdog(ctx context.Context, log *zap.Logger) {
	interval, err := sddaemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Warn("Reading systemd watchdog settings", zap.Error(err))
		return
	}
	if interval == 0 {
		return
	}
	period := interval / 2
	log.Debug("Sending systemd watchdog pings", zap.Duration("period", period))
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.notify(sddaemon.SdNotifyWatchdog); err != nil {
				log.Error("Failed to send systemd watchdog ping", zap.Error(err))
			}
		}
	}
}

package flows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/address"
	"github.com/canaryports/canaryports/internal/canary"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/daemon"
)

// Runner serves every configured canary until the context is done or one of
// them fails.
type Runner struct {
	Config     *config.Config
	Blocker    canary.Blocker
	Reapplier  Reapplier
	Notifier   daemon.Notifier
	Annotators []canary.Annotator
	Logger     *zap.Logger
	// Listen overrides how canary sockets are opened.
	Listen canary.ListenFunc
}

// Reapplier re-issues firewall rules for logged addresses.
type Reapplier interface {
	Reapply(ctx context.Context) error
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Config.Reapply() && r.Reapplier != nil {
		r.Logger.Info("Reapplying blocked addresses...")
		if err := r.Reapplier.Reapply(ctx); err != nil {
			r.Logger.Warn("Some blocked addresses could not be reapplied", zap.Error(err))
		}
	}

	allowlist, err := address.NewAllowlist(r.Config.Allowlist)
	if err != nil {
		return err
	}
	if prefixes := allowlist.Prefixes(); len(prefixes) > 0 {
		r.Logger.Info("Never blocking allowlisted addresses", zap.Stringers("prefixes", prefixes))
	}
	reporter := canary.NewLogReporter(r.Logger, r.Annotators...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listeners := make([]*canary.Listener, 0, len(r.Config.Canaries))
	defer func() {
		for _, l := range listeners {
			l.Stop()
		}
	}()
	for _, c := range r.Config.Canaries {
		l, err := canary.Start(ctx, canary.Config{
			Port:          c.Port,
			Address:       c.Address,
			Mode:          c.ParsedMode(),
			Blocker:       r.Blocker,
			Reporter:      reporter,
			Allowlist:     allowlist,
			MaxFailures:   r.Config.FailureBudget.MaxFailures,
			FailureWindow: r.Config.FailureBudget.Window.Duration,
			Logger:        r.Logger,
			Listen:        r.Listen,
		})
		if err != nil {
			return err
		}
		listeners = append(listeners, l)
	}

	failed := make(chan *canary.Listener, len(listeners))
	for _, l := range listeners {
		l := l
		go func() {
			<-l.Done()
			if l.Err() != nil {
				failed <- l
			}
		}()
	}

	if err := r.Notifier.Ready(); err != nil {
		r.Logger.Warn("Failed to notify service manager", zap.Error(err))
	}
	_ = r.Notifier.Status(fmt.Sprintf("%d canaries listening", len(listeners)))
	go r.Notifier.Watchdog(ctx, r.Logger)
	r.Logger.Info("All canaries listening", zap.Int("count", len(listeners)))

	var runErr error
	select {
	case <-ctx.Done():
		r.Logger.Info("Shutting down")
	case l := <-failed:
		runErr = fmt.Errorf("canary on port %d failed: %w", l.Port(), l.Err())
	}

	if err := r.Notifier.Stopping(); err != nil {
		r.Logger.Warn("Failed to notify service manager", zap.Error(err))
	}
	return runErr
}

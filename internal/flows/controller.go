package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/blocker"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/firewall"
)

// NewController builds the firewall backend named in cfg and returns the
// process-wide controller restored from cfg.LogPath.
func NewController(ctx context.Context, cfg *config.Config, log *zap.Logger) (*blocker.Controller, error) {
	backend, err := firewall.New(ctx, cfg.Backend, firewall.Options{Logger: log})
	if err != nil {
		return nil, err
	}
	log.Info("Using firewall backend", zap.String("backend", backend.Name()))
	return blocker.Instance(blocker.Options{
		LogPath: cfg.LogPath,
		Backend: backend,
		Logger:  log,
	})
}

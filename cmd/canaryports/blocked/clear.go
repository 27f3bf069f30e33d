package blocked

import (
	"context"
	"fmt"

	"github.com/integrii/flaggy"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/errors"
	"github.com/canaryports/canaryports/internal/flows"
	"github.com/canaryports/canaryports/internal/logger"
)

type clearCmd struct {
	cmd        *flaggy.Subcommand
	configPath string
}

func NewClearCommand() cli.Command {
	clear := clearCmd{configPath: config.DefaultPath}
	clear.cmd = flaggy.NewSubcommand("clear")
	clear.cmd.Description = "Unblock every blocked address"
	clear.cmd.String(&clear.configPath, "c", "config", "Path to the canaryports config file.")
	return &clear
}

func (c *clearCmd) Flaggy() *flaggy.Subcommand {
	return c.cmd
}

func (c *clearCmd) Run(log *zap.Logger, opts *cli.GlobalOptions) error {
	ctx := logger.NewContext(context.Background(), log)
	if err := cli.RequireRoot(); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	controller, err := flows.NewController(ctx, cfg, log)
	if err != nil {
		return err
	}

	count := len(controller.BlockedIPs())
	if err := controller.ClearBlockedIPs(ctx); err != nil {
		failures := multierr.Errors(err)
		for _, e := range failures {
			log.Error("Failed to unblock address", zap.Error(e))
		}
		return errors.NewSilent(fmt.Errorf("%d of %d addresses could not be unblocked", len(failures), count))
	}
	log.Info("Unblocked all addresses", zap.Int("count", count))
	return nil
}

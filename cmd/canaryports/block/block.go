package block

import (
	"context"

	"github.com/integrii/flaggy"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/blocker"
	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/flows"
	"github.com/canaryports/canaryports/internal/logger"
)

type operation func(ctx context.Context, c *blocker.Controller, addr string) error

type command struct {
	flaggy     *flaggy.Subcommand
	configPath string
	address    string
	verb       string
	op         operation
}

func NewBlockCommand() cli.Command {
	return newCommand("block", "Block an address by hand", "blocked",
		func(ctx context.Context, c *blocker.Controller, addr string) error {
			return c.BlockIP(ctx, addr)
		})
}

func NewUnblockCommand() cli.Command {
	return newCommand("unblock", "Remove a block by hand", "unblocked",
		func(ctx context.Context, c *blocker.Controller, addr string) error {
			return c.UnblockIP(ctx, addr)
		})
}

func newCommand(name, description, verb string, op operation) *command {
	cmd := command{configPath: config.DefaultPath, verb: verb, op: op}
	fc := flaggy.NewSubcommand(name)
	fc.Description = description
	fc.String(&cmd.configPath, "c", "config", "Path to the canaryports config file.")
	fc.AddPositionalValue(&cmd.address, "address", 1, true, "IPv4 or IPv6 address.")
	cmd.flaggy = fc
	return &cmd
}

func (c *command) Flaggy() *flaggy.Subcommand {
	return c.flaggy
}

func (c *command) Run(log *zap.Logger, opts *cli.GlobalOptions) error {
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
	if err := c.op(ctx, controller, c.address); err != nil {
		return err
	}
	log.Info("Address "+c.verb, zap.String("address", c.address))
	return nil
}

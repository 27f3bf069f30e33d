package config

import (
	"github.com/integrii/flaggy"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/config"
)

type checkCmd struct {
	cmd        *flaggy.Subcommand
	configPath string
}

func NewCheckCommand() cli.Command {
	check := checkCmd{configPath: config.DefaultPath}
	check.cmd = flaggy.NewSubcommand("check")
	check.cmd.Description = "Verify configuration"
	check.cmd.String(&check.configPath, "c", "config", "Path to the canaryports config file.")
	return &check
}

func (c *checkCmd) Flaggy() *flaggy.Subcommand {
	return c.cmd
}

func (c *checkCmd) Run(log *zap.Logger, opts *cli.GlobalOptions) error {
	log.Info("Checking configuration", zap.String("path", c.configPath))
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	for _, canary := range cfg.Canaries {
		log.Info("Canary", zap.Int("port", canary.Port), zap.String("mode", canary.Mode), zap.String("address", canary.Address))
	}
	log.Info("Configuration is valid", zap.String("backend", cfg.Backend), zap.String("logPath", cfg.LogPath))
	return nil
}

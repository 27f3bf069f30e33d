package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/integrii/flaggy"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/canary"
	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/daemon"
	"github.com/canaryports/canaryports/internal/enrich"
	"github.com/canaryports/canaryports/internal/flows"
	"github.com/canaryports/canaryports/internal/logger"
)

const runHelpText = `Examples:
  # Serve the canaries of the default config file
  canaryports run

  # Serve the canaries of a specific config file with debug logs
  canaryports -v run -c /etc/canaryports/lab.yaml`

func NewCommand() cli.Command {
	cmd := command{}

	fc := flaggy.NewSubcommand("run")
	fc.Description = "Listen on the configured canary ports and block peers that connect"
	fc.AdditionalHelpAppend = runHelpText
	fc.String(&cmd.configPath, "c", "config", "Path to the canaryports config file.")
	cmd.configPath = config.DefaultPath
	cmd.flaggy = fc

	return &cmd
}

type command struct {
	flaggy     *flaggy.Subcommand
	configPath string
}

func (c *command) Flaggy() *flaggy.Subcommand {
	return c.flaggy
}

func (c *command) Run(log *zap.Logger, opts *cli.GlobalOptions) error {
	ctx := context.Background()
	ctx = logger.NewContext(ctx, log)

	if err := cli.RequireRoot(); err != nil {
		return err
	}

	log.Info("Loading configuration", zap.String("path", c.configPath))
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	controller, err := flows.NewController(ctx, cfg, log)
	if err != nil {
		return err
	}

	var annotators []canary.Annotator
	if cfg.Enrichment.Enabled {
		enricher, err := enrich.New(enrich.Options{
			GeoIPDir:   cfg.Enrichment.GeoIPDir,
			Nameserver: cfg.Enrichment.Nameserver,
			Logger:     log,
		})
		if err != nil {
			return err
		}
		defer enricher.Close()
		log.Info("Enriching canary events", zap.Bool("geoip", enricher.GeoIPEnabled()))
		annotators = append(annotators, enricher)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &flows.Runner{
		Config:     cfg,
		Blocker:    controller,
		Reapplier:  controller,
		Notifier:   daemon.NewNotifier(),
		Annotators: annotators,
		Logger:     log,
	}
	return runner.Run(ctx)
}

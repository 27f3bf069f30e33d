package main

import (
	"os"

	"github.com/integrii/flaggy"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/cmd/canaryports/block"
	"github.com/canaryports/canaryports/cmd/canaryports/blocked"
	"github.com/canaryports/canaryports/cmd/canaryports/config"
	"github.com/canaryports/canaryports/cmd/canaryports/run"
	"github.com/canaryports/canaryports/cmd/canaryports/version"
	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/errors"
)

func main() {
	flaggy.SetName("canaryports")
	flaggy.SetDescription("Block whoever knocks on a port nobody should knock on")
	flaggy.SetVersion(version.GitVersion)
	flaggy.DefaultParser.SetHelpTemplate(cli.HelpTemplate)
	flaggy.DefaultParser.ShowHelpOnUnexpected = true

	opts := cli.NewGlobalOptions()

	cmds := []cli.Command{
		run.NewCommand(),
		blocked.NewBlockedCommand(),
		block.NewBlockCommand(),
		block.NewUnblockCommand(),
		config.NewConfigCommand(),
	}

	for _, cmd := range cmds {
		flaggy.AttachSubcommand(cmd.Flaggy(), 1)
	}
	flaggy.Parse()

	log := cli.NewLogger(opts)
	defer func() { _ = log.Sync() }()

	for _, cmd := range cmds {
		if cmd.Flaggy().Used {
			err := cmd.Run(log, opts)
			if errors.IsSilent(err) {
				_ = log.Sync()
				os.Exit(1)
			}
			if err != nil {
				log.Fatal("Command failed", zap.Error(err))
			}
			return
		}
	}
	flaggy.ShowHelpAndExit("No command specified")
}

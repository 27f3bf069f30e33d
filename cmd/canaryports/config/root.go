package config

import (
	"github.com/canaryports/canaryports/internal/cli"
)

func NewConfigCommand() cli.Command {
	container := cli.NewCommandContainer("config", "Manage configuration")
	container.AddCommand(NewCheckCommand())
	return container.AsCommand()
}

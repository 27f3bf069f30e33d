package cli

import (
	"github.com/integrii/flaggy"
	"go.uber.org/zap"
)

// Command is a canaryports subcommand.
type Command interface {
	Flaggy() *flaggy.Subcommand
	Run(log *zap.Logger, opts *GlobalOptions) error
}

// CommandContainer groups subcommands under a parent that only dispatches.
type CommandContainer struct {
	flaggy   *flaggy.Subcommand
	commands []Command
}

func NewCommandContainer(name, description string) *CommandContainer {
	fc := flaggy.NewSubcommand(name)
	fc.Description = description
	return &CommandContainer{flaggy: fc}
}

// AddCommand attaches cmd as a subcommand of the container.
func (c *CommandContainer) AddCommand(cmd Command) {
	c.flaggy.AttachSubcommand(cmd.Flaggy(), 1)
	c.commands = append(c.commands, cmd)
}

func (c *CommandContainer) AsCommand() Command {
	return c
}

func (c *CommandContainer) Flaggy() *flaggy.Subcommand {
	return c.flaggy
}

func (c *CommandContainer) Run(log *zap.Logger, opts *GlobalOptions) error {
	for _, cmd := range c.commands {
		if cmd.Flaggy().Used {
			return cmd.Run(log, opts)
		}
	}
	flaggy.ShowHelpAndExit("No subcommand specified")
	return nil
}

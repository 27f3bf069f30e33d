package blocked

import (
	"github.com/canaryports/canaryports/internal/cli"
)

func NewBlockedCommand() cli.Command {
	container := cli.NewCommandContainer("blocked", "Inspect and clear blocked addresses")
	container.AddCommand(NewListCommand())
	container.AddCommand(NewClearCommand())
	return container.AsCommand()
}

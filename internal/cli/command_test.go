package cli_test

import (
	"testing"

	"github.com/integrii/flaggy"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/cli"
)

type recordingCommand struct {
	flaggy *flaggy.Subcommand
	ran    bool
}

func (c *recordingCommand) Flaggy() *flaggy.Subcommand { return c.flaggy }

func (c *recordingCommand) Run(*zap.Logger, *cli.GlobalOptions) error {
	c.ran = true
	return nil
}

func TestCommandContainerDispatchesUsedCommand(t *testing.T) {
	g := NewWithT(t)
	list := &recordingCommand{flaggy: flaggy.NewSubcommand("list")}
	clear := &recordingCommand{flaggy: flaggy.NewSubcommand("clear")}

	container := cli.NewCommandContainer("blocked", "Manage blocked addresses")
	container.AddCommand(list)
	container.AddCommand(clear)
	cmd := container.AsCommand()
	g.Expect(cmd.Flaggy().Name).To(Equal("blocked"))
	g.Expect(cmd.Flaggy().Description).To(Equal("Manage blocked addresses"))
	g.Expect(cmd.Flaggy().Subcommands).To(HaveLen(2))

	clear.flaggy.Used = true
	g.Expect(cmd.Run(zap.NewNop(), &cli.GlobalOptions{})).To(Succeed())
	g.Expect(clear.ran).To(BeTrue())
	g.Expect(list.ran).To(BeFalse())
}

package blocked

import (
	"fmt"
	"io"
	"os"

	"github.com/integrii/flaggy"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/canaryports/canaryports/internal/blocker"
	"github.com/canaryports/canaryports/internal/cli"
	"github.com/canaryports/canaryports/internal/config"
	"github.com/canaryports/canaryports/internal/firewall"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

type listCmd struct {
	cmd        *flaggy.Subcommand
	configPath string
	output     string
	out        io.Writer
}

func NewListCommand() cli.Command {
	list := listCmd{configPath: config.DefaultPath, output: outputText, out: os.Stdout}
	list.cmd = flaggy.NewSubcommand("list")
	list.cmd.Description = "Print the blocked addresses"
	list.cmd.String(&list.configPath, "c", "config", "Path to the canaryports config file.")
	list.cmd.String(&list.output, "o", "output", "Output format. Allowed values: [text, yaml].")
	return &list
}

func (c *listCmd) Flaggy() *flaggy.Subcommand {
	return c.cmd
}

func (c *listCmd) Run(log *zap.Logger, opts *cli.GlobalOptions) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	// Listing never touches the firewall.
	controller, err := blocker.New(blocker.Options{
		LogPath: cfg.LogPath,
		Backend: firewall.NewNoop(log),
		Logger:  log,
	})
	if err != nil {
		return err
	}
	return printAddresses(c.out, c.output, controller.BlockedIPs())
}

func printAddresses(w io.Writer, format string, addrs []string) error {
	switch format {
	case outputText:
		for _, a := range addrs {
			if _, err := fmt.Fprintln(w, a); err != nil {
				return err
			}
		}
		return nil
	case outputYAML:
		data, err := yaml.Marshal(map[string][]string{"blocked": addrs})
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

package cli

import "github.com/integrii/flaggy"

type GlobalOptions struct {
	DevelopmentMode bool
	Verbose         bool
}

func NewGlobalOptions() *GlobalOptions {
	opts := GlobalOptions{}
	flaggy.Bool(&opts.DevelopmentMode, "d", "development", "Enable development mode for logging.")
	flaggy.Bool(&opts.Verbose, "v", "verbose", "Log debug messages, including every firewall command.")
	return &opts
}

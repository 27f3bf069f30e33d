package config

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"k8s.io/utils/set"

	"github.com/canaryports/canaryports/internal/address"
	"github.com/canaryports/canaryports/internal/canary"
	"github.com/canaryports/canaryports/internal/firewall"
)

// Validate reports every problem of cfg at once.
func Validate(cfg *Config) error {
	var errs error
	if cfg.LogPath == "" {
		errs = multierr.Append(errs, fmt.Errorf("logPath is missing"))
	}
	if !slices.Contains(firewall.Names, cfg.Backend) {
		errs = multierr.Append(errs, fmt.Errorf("backend %q is not one of %v", cfg.Backend, firewall.Names))
	}
	if _, err := address.NewAllowlist(cfg.Allowlist); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("allowlist: %w", err))
	}
	if cfg.FailureBudget.MaxFailures < 0 {
		errs = multierr.Append(errs, fmt.Errorf("failureBudget.maxFailures must not be negative"))
	}
	if cfg.FailureBudget.Window.Duration < 0 {
		errs = multierr.Append(errs, fmt.Errorf("failureBudget.window must not be negative"))
	}

	if len(cfg.Canaries) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one canary is required"))
	}
	seen := set.New[int]()
	for i, c := range cfg.Canaries {
		if c.Port < 1 || c.Port > 65535 {
			errs = multierr.Append(errs, fmt.Errorf("canaries[%d]: port %d is out of range 1-65535", i, c.Port))
		} else if seen.Has(c.Port) {
			errs = multierr.Append(errs, fmt.Errorf("canaries[%d]: port %d is configured more than once", i, c.Port))
		}
		seen.Insert(c.Port)
		if c.Address != "" && address.Classify(c.Address) == address.Invalid {
			errs = multierr.Append(errs, fmt.Errorf("canaries[%d]: invalid address %q", i, c.Address))
		}
		if _, err := canary.ParseMode(c.Mode); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("canaries[%d]: %w", i, err))
		}
	}
	return errs
}

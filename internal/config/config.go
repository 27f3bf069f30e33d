// Package config loads the canaryports configuration file.
package config

import (
	"fmt"
	"io"
	"os"

	"dario.cat/mergo"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/canaryports/canaryports/internal/canary"
	"github.com/canaryports/canaryports/internal/firewall"
)

const (
	DefaultLogPath = "/var/lib/canaryports/blocked.json"
	DefaultPath    = "/etc/canaryports/config.yaml"
)

type Config struct {
	// LogPath is the JSON log of blocked addresses.
	LogPath string `json:"logPath,omitempty"`
	// Backend is one of firewall.Names.
	Backend string `json:"backend,omitempty"`
	// ReapplyOnStart re-issues the firewall rule for every logged address when
	// the daemon starts.
	ReapplyOnStart *bool         `json:"reapplyOnStart,omitempty"`
	Allowlist      []string      `json:"allowlist,omitempty"`
	FailureBudget  FailureBudget `json:"failureBudget,omitempty"`
	Enrichment     Enrichment    `json:"enrichment,omitempty"`
	Canaries       []Canary      `json:"canaries,omitempty"`
}

// FailureBudget bounds unexpected failures of a single canary.
type FailureBudget struct {
	MaxFailures int             `json:"maxFailures,omitempty"`
	Window      metav1.Duration `json:"window,omitempty"`
}

type Enrichment struct {
	Enabled    bool   `json:"enabled,omitempty"`
	GeoIPDir   string `json:"geoipDir,omitempty"`
	Nameserver string `json:"nameserver,omitempty"`
}

type Canary struct {
	Port int `json:"port"`
	// Address binds a single local address instead of all of them.
	Address string `json:"address,omitempty"`
	// Mode is enforcing or detection-only. Empty means detection-only.
	Mode string `json:"mode,omitempty"`
}

// ParsedMode returns the canary mode. The config must have been validated.
func (c Canary) ParsedMode() canary.Mode {
	m, _ := canary.ParseMode(c.Mode)
	return m
}

// Default returns the values used for every field the file leaves empty.
func Default() Config {
	return Config{
		LogPath:        DefaultLogPath,
		Backend:        firewall.AutoName,
		ReapplyOnStart: ptr.To(true),
		FailureBudget: FailureBudget{
			MaxFailures: canary.DefaultMaxFailures,
			Window:      metav1.Duration{Duration: canary.DefaultFailureWindow},
		},
	}
}

// Load reads, defaults and validates the config file at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path is a directory: %s", path)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML or JSON, rejecting unknown fields, then applies defaults
// and validates the result.
func Decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) error {
	if err := mergo.Merge(cfg, Default(), mergo.WithoutDereference); err != nil {
		return fmt.Errorf("applying config defaults: %w", err)
	}
	for i := range cfg.Canaries {
		if cfg.Canaries[i].Mode == "" {
			cfg.Canaries[i].Mode = canary.DetectionOnly.String()
		}
	}
	return nil
}

// Reapply reports whether logged addresses are blocked again on start.
func (c *Config) Reapply() bool {
	return ptr.Deref(c.ReapplyOnStart, true)
}

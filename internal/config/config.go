// Package config loads tracker configuration from HCL files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete application configuration.
type Config struct {
	Server  ServerSettings  `hcl:"server,block"`
	Tracker TrackerSettings `hcl:"tracker,block"`
}

// ServerSettings configures the frame ingest server.
type ServerSettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TrackerSettings configures frame polling and window selection.
type TrackerSettings struct {
	// PollIntervalMS is the cadence, in milliseconds, at which a frame
	// source is polled.
	PollIntervalMS int `hcl:"poll_interval_ms,optional"`

	// Windows restricts tracking to the named table windows. Empty
	// means track everything.
	Windows []string `hcl:"windows,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Addr:     "localhost:8090",
			LogLevel: "info",
		},
		Tracker: TrackerSettings{
			PollIntervalMS: 500,
		},
	}
}

// Load reads an HCL configuration file, falling back to defaults when
// the file does not exist. Missing fields inside an existing file get
// the default values.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaults.Server.LogLevel
	}
	if cfg.Tracker.PollIntervalMS == 0 {
		cfg.Tracker.PollIntervalMS = defaults.Tracker.PollIntervalMS
	}

	return &cfg, nil
}

// PollInterval returns the polling cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Tracker.PollIntervalMS) * time.Millisecond
}

// TracksWindow reports whether the named window should be tracked.
func (c *Config) TracksWindow(name string) bool {
	if len(c.Tracker.Windows) == 0 {
		return true
	}
	for _, w := range c.Tracker.Windows {
		if w == name {
			return true
		}
	}
	return false
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Server.LogLevel)
	}
	if c.Tracker.PollIntervalMS < 0 {
		return fmt.Errorf("poll_interval_ms must not be negative")
	}
	return nil
}

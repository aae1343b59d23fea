// Package config loads the optional winbridge server configuration file.
// Everything in it has a default, so running without a file is the common
// case. Flags and environment variables override file values; that
// precedence is applied by the start command, not here.
package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                  = "8080"
	DefaultCommandTimeoutSeconds = 30
)

// Config holds the server settings read from a YAML file.
type Config struct {
	// Port is the TCP port the HTTP transport binds to.
	Port string `yaml:"port"`

	// CommandTimeoutSeconds bounds how long any single external command
	// may run before it is killed.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	Telemetry struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"telemetry"`

	// DisabledTools lists tool names that must not be registered,
	// e.g. "service" to make the server strictly read-only.
	DisabledTools []string `yaml:"disabled_tools"`
}

// Default returns a Config with every field at its default value.
func Default() *Config {
	return &Config{
		Port:                  DefaultPort,
		CommandTimeoutSeconds: DefaultCommandTimeoutSeconds,
	}
}

// Load reads and validates a config file. An empty path returns the
// defaults. A path that does not exist is an error: a file the operator
// asked for must not be silently skipped.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.CommandTimeoutSeconds == 0 {
		cfg.CommandTimeoutSeconds = DefaultCommandTimeoutSeconds
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be an integer between 1 and 65535, got %q", c.Port)
	}
	if c.CommandTimeoutSeconds < 1 {
		return fmt.Errorf("command_timeout_seconds must be positive, got %d", c.CommandTimeoutSeconds)
	}
	return nil
}

// IsToolDisabled reports whether a tool name appears in DisabledTools.
func (c *Config) IsToolDisabled(name string) bool {
	for _, disabled := range c.DisabledTools {
		if disabled == name {
			return true
		}
	}
	return false
}

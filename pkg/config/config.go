// Package config loads the optional reactive.yaml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/reactive/pkg/reactive"
)

// Config represents the optional reactive.yaml configuration.
type Config struct {
	Dispose   DisposeConfig   `yaml:"dispose"`
	Inspector InspectorConfig `yaml:"inspector"`
	Errors    ErrorsConfig    `yaml:"errors"`
}

// DisposeConfig contains auto-dispose settings.
type DisposeConfig struct {
	// Timeout is the grace period before an unreferenced auto-dispose
	// holder is removed, e.g. "45s" or "2m".
	Timeout Duration `yaml:"timeout,omitempty"`
}

// InspectorConfig contains debug server settings.
type InspectorConfig struct {
	// Port is the inspector listen port. Zero picks an ephemeral port.
	Port int `yaml:"port,omitempty"`
}

// ErrorsConfig contains error reporting settings.
type ErrorsConfig struct {
	// Verbose enables stack traces in logged errors.
	Verbose bool `yaml:"verbose,omitempty"`
}

// Duration wraps time.Duration with YAML decoding from strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadOptional reads reactive.yaml from dir if present. A missing file is
// not an error; malformed YAML is.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "reactive.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read reactive.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse reactive.yaml: %w", err)
	}
	return &cfg, nil
}

// RegistryOptions translates the configuration into registry options.
func (c *Config) RegistryOptions() []reactive.RegistryOption {
	var opts []reactive.RegistryOption
	if c.Dispose.Timeout > 0 {
		opts = append(opts, reactive.WithDisposeTimeout(time.Duration(c.Dispose.Timeout)))
	}
	return opts
}

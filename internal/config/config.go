// Package config loads the optional browserslist-lint settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/browserslist-lint/internal/lint"
	"github.com/wizzomafizzo/browserslist-lint/internal/logging"
	"gopkg.in/yaml.v3"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Log   LoggingConfig `yaml:"log"`
	Color string        `yaml:"color"`
	// Defaults fill in Browserslist options the command line leaves empty.
	Defaults lint.Options `yaml:"defaults,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Load reads settings from path. A missing file yields the defaults.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads config from YAML bytes, filling unset fields with defaults.
func LoadFromYAML(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the color mode and log level.
func (c *Config) Validate() error {
	validModes := []string{ColorAuto, ColorAlways, ColorNever}
	if !slices.Contains(validModes, c.Color) {
		return fmt.Errorf("invalid color mode '%s': must be one of: auto, always, never", c.Color)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

// NoColor reports whether output should be uncolored, given whether the
// terminal already disables color.
func (c *Config) NoColor(terminalNoColor bool) bool {
	switch c.Color {
	case ColorAlways:
		return false
	case ColorNever:
		return true
	default:
		return terminalNoColor
	}
}

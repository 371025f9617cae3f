// Package config loads and validates the site configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Config is the top-level site configuration. A change to the config file is
// never a partial-rebuild case: the watch loop restarts the whole pipeline.
type Config struct {
	// Source is the root of the source document tree.
	Source string `yaml:"source"`
	// Output is where rendered files are persisted.
	Output string `yaml:"output"`
	// Includes is the directory (relative to Source) reserved for layouts
	// and partials; it is excluded from page discovery.
	Includes string `yaml:"includes"`
	// Ignore holds doublestar globs (relative to Source) excluded from
	// discovery.
	Ignore []string `yaml:"ignore"`
	// Workers bounds per-page fan-out during rendering and processing.
	Workers int `yaml:"workers"`
	// Debounce is the quiet window for batching watch notifications,
	// as a Go duration string.
	Debounce string `yaml:"debounce"`
	// PrettyURLs rewrites page destinations to dir/name/index.html.
	PrettyURLs *bool `yaml:"prettyUrls"`

	debounce time.Duration
}

// Load reads, normalizes, and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "reading configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parsing configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills defaults and derived fields.
func (c *Config) Normalize() {
	if c.Source == "" {
		c.Source = "."
	}
	if c.Output == "" {
		c.Output = "_site"
	}
	if c.Includes == "" {
		c.Includes = "_includes"
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Debounce == "" {
		c.Debounce = "300ms"
	}
	if d, err := time.ParseDuration(c.Debounce); err == nil {
		c.debounce = d
	}
	if c.PrettyURLs == nil {
		t := true
		c.PrettyURLs = &t
	}
}

// Validate reports configuration errors. All are process-fatal.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Debounce); err != nil {
		return ferrors.ConfigError("invalid debounce duration").
			WithContext("debounce", c.Debounce).
			Build()
	}
	if filepath.IsAbs(c.Includes) {
		return ferrors.ConfigError("includes must be relative to source").
			WithContext("includes", c.Includes).
			Build()
	}
	if c.Source == c.Output {
		return ferrors.ConfigError("source and output must differ").Build()
	}
	return nil
}

// DebounceWindow returns the parsed debounce duration.
func (c *Config) DebounceWindow() time.Duration {
	if c.debounce <= 0 {
		return 300 * time.Millisecond
	}
	return c.debounce
}

// Pretty reports whether pretty URLs are enabled.
func (c *Config) Pretty() bool {
	return c.PrettyURLs != nil && *c.PrettyURLs
}

package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/table"
)

// Config holds settings read from an optional YAML file. Zero values mean
// "use the default"; command-line flags override file values.
//
// Example:
//
//	backend: avx2
//	workers: 8
//	dataDir: ./data
//	ranges:
//	  - {low: 0, high: 3}
//	  - {low: 1, high: 3}
//	mappings:
//	  - [0, 0, 1, 1]
//	  - [0, 1, 2, 3]
type Config struct {
	Backend  string                  `yaml:"backend"`
	Workers  int                     `yaml:"workers"`
	DataDir  string                  `yaml:"dataDir"`
	Ranges   []table.SelectorRange   `yaml:"ranges"`
	Mappings []table.SelectorMapping `yaml:"mappings"`
}

// Default returns the built-in configuration.
func Default() *Config {
	layout := table.DefaultLayout()
	return &Config{
		Backend:  "auto",
		DataDir:  "./data",
		Ranges:   layout.Ranges,
		Mappings: layout.Mappings,
	}
}

// Load reads a YAML config file and fills unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return cfg, nil
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode yaml")
	}

	def := Default()
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if len(cfg.Ranges) == 0 {
		cfg.Ranges = def.Ranges
	}
	if len(cfg.Mappings) == 0 {
		cfg.Mappings = def.Mappings
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend name, worker count and selector tables.
func (c *Config) Validate() error {
	if _, err := simd.NormalizeBackend(c.Backend); err != nil {
		return errors.Wrap(err, "backend")
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return c.Layout().Validate()
}

// Layout returns the selector tables as a table layout.
func (c *Config) Layout() table.Layout {
	return table.Layout{Ranges: c.Ranges, Mappings: c.Mappings}
}

// BackendValue resolves the configured backend name.
func (c *Config) BackendValue() (simd.Backend, error) {
	return simd.NormalizeBackend(c.Backend)
}

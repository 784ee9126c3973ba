package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/circsim/internal/sim"
)

const (
	DefaultSteps   = 1000
	DefaultTickMS  = 50
	DefaultDataDir = ".circsim"
	DefaultCircuit = PresetPrefix + "divider"
)

// Config holds the settings of one run. Flags override it in the CLI.
type Config struct {
	Circuit string   `yaml:"circuit" toml:"circuit"`
	Dt      float64  `yaml:"dt" toml:"dt"`
	Steps   int      `yaml:"steps" toml:"steps"`
	Metrics []string `yaml:"metrics" toml:"metrics"`
	DataDir string   `yaml:"data_dir" toml:"data_dir"`
	// TickMS is the live view refresh interval; one step runs per tick.
	TickMS int `yaml:"tick_ms" toml:"tick_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		Circuit: DefaultCircuit,
		Dt:      sim.DefaultTimeStep,
		Steps:   DefaultSteps,
		Metrics: []string{"kcl_residual", "dissipated_power", "source_power"},
		DataDir: DefaultDataDir,
		TickMS:  DefaultTickMS,
	}
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	return nil
}

// Load reads a run config. Files ending in .toml are TOML, anything else YAML.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := marshal(path, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, v any) error {
	if isTOML(path) {
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func marshal(path string, v any) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(v)
	}
	return yaml.Marshal(v)
}

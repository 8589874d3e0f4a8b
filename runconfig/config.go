// Package runconfig holds the JSON-loadable configuration for a
// cmd/simulate run: how many nodes to simulate, the network delay
// distribution, where to stop, and where to write optional outputs.
package runconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds everything needed to construct and run a simulation.
type Config struct {
	NumNodes             int     `json:"num_nodes"`
	NetworkDelayMean     float64 `json:"network_delay_mean"`
	NetworkDelayVariance float64 `json:"network_delay_variance"`
	MaxClock             int64   `json:"max_clock"`
	Seed                 int64   `json:"seed"`
	CSVOutputPath        string  `json:"csv_output_path,omitempty"`
	RunArchivePath       string  `json:"run_archive_path,omitempty"`
}

// DefaultConfig returns a small single-process smoke-run configuration.
func DefaultConfig() *Config {
	return &Config{
		NumNodes:             4,
		NetworkDelayMean:     10,
		NetworkDelayVariance: 4,
		MaxClock:             10000,
		Seed:                 1,
	}
}

// Load reads a JSON config file from path, applying DefaultConfig's values
// for anything the file omits, then validates it. The os.ReadFile error is
// returned unwrapped so callers can still test it with os.IsNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("runconfig: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runconfig: validating %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field is within a usable range.
func (c *Config) Validate() error {
	if c.NumNodes < 0 {
		return fmt.Errorf("num_nodes must be non-negative, got %d", c.NumNodes)
	}
	if c.NetworkDelayMean <= 0 {
		return fmt.Errorf("network_delay_mean must be positive, got %v", c.NetworkDelayMean)
	}
	if c.NetworkDelayVariance < 0 {
		return fmt.Errorf("network_delay_variance must be non-negative, got %v", c.NetworkDelayVariance)
	}
	if c.MaxClock < 0 {
		return fmt.Errorf("max_clock must be non-negative, got %d", c.MaxClock)
	}
	return nil
}

// Save writes cfg to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("runconfig: marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

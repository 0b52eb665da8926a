// Package config handles surfmesh configuration loading and saving.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the surfmesh pipeline.
type Config struct {
	Import   ImportConfig   `yaml:"import"`
	Classify ClassifyConfig `yaml:"classify"`
	Adapt    AdaptConfig    `yaml:"adapt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ImportConfig holds triangle soup import settings.
type ImportConfig struct {
	Tolerance float64 `yaml:"tolerance"` // Vertex merge distance relative to the model size
}

// ClassifyConfig holds feature detection settings.
type ClassifyConfig struct {
	Angle        float64 `yaml:"angle"` // Feature angle in degrees
	FitTolerance float64 `yaml:"fit_tolerance"`
}

// AdaptConfig holds remeshing settings. A zero TargetSize selects a
// fraction of the model size.
type AdaptConfig struct {
	TargetSize float64 `yaml:"target_size"`
	MaxPasses  int     `yaml:"max_passes"`
	Smooth     bool    `yaml:"smooth"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Tolerance: 1e-6,
		},
		Classify: ClassifyConfig{
			Angle:        40,
			FitTolerance: 1e-6,
		},
		Adapt: AdaptConfig{
			TargetSize: 0,
			MaxPasses:  10,
			Smooth:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overridden by the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Import.Tolerance < 0:
		return fmt.Errorf("negative import tolerance %g", c.Import.Tolerance)
	case c.Classify.Angle <= 0 || c.Classify.Angle >= 180:
		return fmt.Errorf("classify angle %g outside (0, 180) degrees", c.Classify.Angle)
	case c.Adapt.TargetSize < 0:
		return fmt.Errorf("negative target size %g", c.Adapt.TargetSize)
	case c.Adapt.MaxPasses < 0:
		return fmt.Errorf("negative max passes %d", c.Adapt.MaxPasses)
	}
	return nil
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

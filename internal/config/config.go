// Application configuration loaded from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Strategy names one of the two pipeline implementations
type Strategy string

const (
	StrategyGPU Strategy = "gpu"
	StrategyCPU Strategy = "cpu"
)

// Config is the full application configuration
type Config struct {
	Pipeline Strategy `yaml:"pipeline"`
	Controls Controls `yaml:"controls"`
	Schedule struct {
		// RefreshRate is used when the source does not report a frame rate
		RefreshRate float64 `yaml:"refreshrate"`
	} `yaml:"schedule"`
	Recording struct {
		FPS   float64 `yaml:"fps"`
		Codec string  `yaml:"codec"`
		Dir   string  `yaml:"dir"`
	} `yaml:"recording"`
}

// Default returns the built-in configuration
func Default() Config {
	cfg := Config{
		Pipeline: StrategyGPU,
		Controls: DefaultControls(),
	}
	cfg.Schedule.RefreshRate = 60
	cfg.Recording.FPS = 30
	cfg.Recording.Codec = "MJPG"
	cfg.Recording.Dir = "recordings"
	return cfg
}

// Load reads a YAML file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the whole configuration
func (c Config) Validate() error {
	if c.Pipeline != StrategyGPU && c.Pipeline != StrategyCPU {
		return fmt.Errorf("unknown pipeline %q (want gpu or cpu)", c.Pipeline)
	}
	if err := c.Controls.Validate(); err != nil {
		return err
	}
	if c.Schedule.RefreshRate <= 0 {
		return fmt.Errorf("schedule.refreshrate must be positive")
	}
	if c.Recording.FPS <= 0 {
		return fmt.Errorf("recording.fps must be positive")
	}
	if len(c.Recording.Codec) != 4 {
		return fmt.Errorf("recording.codec must be a fourcc, got %q", c.Recording.Codec)
	}
	return nil
}

// RefreshInterval is the tick period of the display refresh fallback
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Schedule.RefreshRate)
}

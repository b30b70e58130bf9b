// Package config loads scheduler configuration from YAML.
//
// Fields missing from the file keep their Default values; invalid values are
// a fatal start-up error, reported as core.ErrInvalidConfiguration.
package config

import (
	"fmt"
	"os"

	"github.com/loomkit/loom/core"
	"gopkg.in/yaml.v3"
)

// File is the on-disk scheduler configuration.
type File struct {
	// Workers is the fixed pool size.
	Workers int `yaml:"workers"`

	// StepMs is the per-tick sleep in milliseconds.
	StepMs int `yaml:"step_ms"`

	// QueueCapacity is the per-worker hard admission limit.
	QueueCapacity int `yaml:"queue_capacity"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Workers:       4,
		StepMs:        10,
		QueueCapacity: 1024,
		MetricsAddr:   ":2112",
	}
}

// Load reads and validates a YAML configuration file. Fields missing from
// the file keep their Default values.
func Load(path string) (File, error) {
	f := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %v", core.ErrInvalidConfiguration, err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks that every scheduler-facing value is positive.
func (f File) Validate() error {
	if f.Workers <= 0 || f.StepMs <= 0 || f.QueueCapacity <= 0 {
		return fmt.Errorf("%w: workers=%d step_ms=%d queue_capacity=%d",
			core.ErrInvalidConfiguration, f.Workers, f.StepMs, f.QueueCapacity)
	}
	return nil
}

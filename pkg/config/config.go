package config

import (
	"time"

	"github.com/ajitpratap0/hotpool/pkg/errors"
	"github.com/ajitpratap0/hotpool/pkg/logger"
	"github.com/ajitpratap0/hotpool/pkg/memory"
	"github.com/ajitpratap0/hotpool/pkg/observability"
	"github.com/ajitpratap0/hotpool/pkg/pool"
)

// Config is the top-level configuration for hotpool processes. Sections
// map one-to-one onto the packages that consume them.
type Config struct {
	// Memory selects and tunes the memory monitor
	Memory MemoryConfig `yaml:"memory" mapstructure:"memory"`

	// Pool sizes the pools built from this configuration
	Pool pool.Config `yaml:"pool" mapstructure:"pool"`

	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Tracing controls OpenTelemetry span export
	Tracing observability.TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// MemoryConfig contains memory monitor settings.
type MemoryConfig struct {
	// Probe is one of "runtime", "system" or "process"
	Probe string `yaml:"probe" mapstructure:"probe"`
	// LimitBytes is the maximum for the process probe; zero uses total RAM
	LimitBytes int64 `yaml:"limit_bytes" mapstructure:"limit_bytes"`
	// Interval is the sampling period
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// NewConfig returns a Config with defaults for every section.
func NewConfig() *Config {
	return &Config{
		Memory: MemoryConfig{
			Probe:    memory.ProbeRuntime,
			Interval: memory.DefaultInterval,
		},
		Pool: *pool.DefaultConfig(),
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Memory.Probe {
	case memory.ProbeRuntime, memory.ProbeSystem, memory.ProbeProcess:
	default:
		return errors.New(errors.ErrorTypeConfig, "unknown memory probe").
			WithDetail("probe", c.Memory.Probe)
	}
	if c.Memory.LimitBytes < 0 {
		return errors.New(errors.ErrorTypeConfig, "memory limit_bytes cannot be negative").
			WithDetail("value", c.Memory.LimitBytes)
	}
	if c.Memory.Interval <= 0 {
		return errors.New(errors.ErrorTypeConfig, "memory interval must be positive").
			WithDetail("value", c.Memory.Interval)
	}
	if err := c.Pool.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid pool section")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New(errors.ErrorTypeConfig, "metrics addr is required when metrics are enabled")
	}
	return c.Tracing.Validate()
}

// MonitorConfig derives the memory monitor configuration.
func (m MemoryConfig) MonitorConfig() *memory.MonitorConfig {
	return &memory.MonitorConfig{
		Interval: m.Interval,
		Logger:   logger.Named("memory"),
	}
}

// NewMonitor builds the configured probe and an unstarted monitor over it.
func (m MemoryConfig) NewMonitor() (*memory.Monitor, error) {
	probe, err := memory.NewProbe(m.Probe, m.LimitBytes)
	if err != nil {
		return nil, err
	}
	return memory.NewMonitor(probe, m.MonitorConfig())
}

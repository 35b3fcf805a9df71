package pool

import (
	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Config holds pool sizing and the memory-pressure threshold.
type Config struct {
	// Name labels the pool in logs, errors and metrics
	Name string `yaml:"name" mapstructure:"name" json:"name"`
	// InitialSize is the number of instances constructed eagerly. Tiered
	// caps it at PrimaryCapacity.
	InitialSize int `yaml:"initial_size" mapstructure:"initial_size" json:"initial_size"`
	// PrimaryCapacity bounds the Tiered primary store (Cp)
	PrimaryCapacity int `yaml:"primary_capacity" mapstructure:"primary_capacity" json:"primary_capacity"`
	// BackupCapacity bounds the Tiered backup store (Cb)
	BackupCapacity int `yaml:"backup_capacity" mapstructure:"backup_capacity" json:"backup_capacity"`
	// HeadroomRatio is the fraction of max memory that must stay available
	HeadroomRatio float64 `yaml:"headroom_ratio" mapstructure:"headroom_ratio" json:"headroom_ratio"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Name:            "default",
		InitialSize:     16,
		PrimaryCapacity: 128,
		BackupCapacity:  1024,
		HeadroomRatio:   DefaultHeadroomRatio,
	}
}

// Validate checks the fields both pool kinds use.
func (c *Config) Validate() error {
	if c.InitialSize < 0 {
		return errors.New(errors.ErrorTypeValidation, "initial_size cannot be negative").
			WithDetail("value", c.InitialSize)
	}
	if c.HeadroomRatio < 0 || c.HeadroomRatio >= 1 {
		return errors.New(errors.ErrorTypeValidation, "headroom_ratio must be in [0, 1)").
			WithDetail("value", c.HeadroomRatio)
	}
	return nil
}

// ValidateTiered additionally checks the store capacities.
func (c *Config) ValidateTiered() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.PrimaryCapacity <= 0 {
		return errors.New(errors.ErrorTypeValidation, "primary_capacity must be positive").
			WithDetail("value", c.PrimaryCapacity)
	}
	if c.BackupCapacity < 0 {
		return errors.New(errors.ErrorTypeValidation, "backup_capacity cannot be negative").
			WithDetail("value", c.BackupCapacity)
	}
	return nil
}

func resolveConfig(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	c := *cfg
	if c.Name == "" {
		c.Name = "default"
	}
	return &c
}

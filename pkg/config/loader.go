package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. HOTPOOL_POOL_INITIAL_SIZE.
const EnvPrefix = "HOTPOOL"

// Load reads configuration from a YAML file, if path is not empty, then
// applies HOTPOOL_* environment overrides on top of the defaults from
// NewConfig. The result is validated.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "config file not found").
					WithDetail("path", path)
			}
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	return data, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewConfig())
	return v
}

// setDefaults registers every key so AutomaticEnv can override keys that
// the file does not mention.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("memory.probe", d.Memory.Probe)
	v.SetDefault("memory.limit_bytes", d.Memory.LimitBytes)
	v.SetDefault("memory.interval", d.Memory.Interval)

	v.SetDefault("pool.name", d.Pool.Name)
	v.SetDefault("pool.initial_size", d.Pool.InitialSize)
	v.SetDefault("pool.primary_capacity", d.Pool.PrimaryCapacity)
	v.SetDefault("pool.backup_capacity", d.Pool.BackupCapacity)
	v.SetDefault("pool.headroom_ratio", d.Pool.HeadroomRatio)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.service_version", d.Tracing.ServiceVersion)
	v.SetDefault("tracing.environment", d.Tracing.Environment)
	v.SetDefault("tracing.sampling_rate", d.Tracing.SamplingRate)
	v.SetDefault("tracing.output_path", d.Tracing.OutputPath)
	v.SetDefault("tracing.pretty_print", d.Tracing.PrettyPrint)
	v.SetDefault("tracing.batch_timeout", d.Tracing.BatchTimeout)
}

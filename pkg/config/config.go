// Package config loads, validates, and documents the configuration for
// weft's client and server binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/weftrpc/weft/pkg/client"
	"github.com/weftrpc/weft/pkg/server"
)

// LoggingConfig controls logging behavior, shared by every binary.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// SupervisorConfig controls the worker-process fan-out.
type SupervisorConfig struct {
	// Workers is the number of worker processes to maintain.
	Workers int `mapstructure:"workers" validate:"min=0" yaml:"workers"`
	// WorkerMemoryLimitBytes kills and respawns a worker exceeding this
	// RSS; 0 disables the memory watch.
	WorkerMemoryLimitBytes uint64 `mapstructure:"worker_memory_limit_bytes" yaml:"worker_memory_limit_bytes"`
	// WorkerArgs are appended to a re-exec of the current binary to run
	// it in worker mode.
	WorkerArgs []string `mapstructure:"worker_args" yaml:"worker_args,omitempty"`
}

// Config is the full configuration for the weftd daemon.
//
// Precedence (highest to lowest): CLI flags, environment variables
// (WEFT_*), configuration file, defaults.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Server     server.Config    `mapstructure:"server" yaml:"server"`
	Supervisor SupervisorConfig `mapstructure:"supervisor" yaml:"supervisor"`
}

// ClientConfig is the configuration surface for weftbench and other
// client-only tools; it wraps pkg/client's Config with the ambient
// logging block so a client binary need not pull in server/supervisor
// settings it has no use for.
type ClientConfig struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Client  client.Config `mapstructure:"client" yaml:"client"`
}

// Load reads configuration from file, environment, and (optionally) CLI
// flags, applies defaults for anything left unset, and validates the
// result.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadClient is Load's counterpart for client-only tools.
func LoadClient(configPath string, flags *pflag.FlagSet) (*ClientConfig, error) {
	v := viper.New()
	setupViper(v, configPath)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := DefaultClientConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	ApplyClientDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(cfg any, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("WEFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// decodeHooks lets YAML/env values use human-readable durations ("30s",
// "5m") and comma-separated lists for slice fields.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "weft")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "weft")
}

// DefaultConfigPath returns the default location weftd looks for a
// config file.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

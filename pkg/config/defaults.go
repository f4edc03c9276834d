package config

import (
	"strings"

	"github.com/weftrpc/weft/pkg/client"
	"github.com/weftrpc/weft/pkg/server"
)

// DefaultConfig returns a Config with every field at its documented
// default.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: server.DefaultConfig(),
	}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultClientConfig returns a ClientConfig with every field at its
// documented default.
func DefaultClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		Client: client.DefaultConfig(),
	}
	ApplyClientDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields left unset by the loaded
// file/env/flags.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerZeroDefaults(&cfg.Server)
}

// ApplyClientDefaults is ApplyDefaults's counterpart for ClientConfig.
func ApplyClientDefaults(cfg *ClientConfig) {
	applyLoggingDefaults(&cfg.Logging)
	applyClientZeroDefaults(&cfg.Client)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerZeroDefaults reapplies server.DefaultConfig()'s values to
// any field the loader left at its Go zero value. A config file that
// sets only `server.port` should not also zero out `server.host`.
func applyServerZeroDefaults(cfg *server.Config) {
	d := server.DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	// MaxIdleTime's zero value (0) is the documented switch that disables
	// the idle reaper, so it is not backfilled either.
	// ConcurrencyLimit's zero value (0) is itself the documented
	// "uncapped" default, so there is nothing to backfill.
}

func applyClientZeroDefaults(cfg *client.Config) {
	d := client.DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = d.PoolSize
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = d.ConnTimeout
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = d.IOTimeout
	}
	if cfg.MaxOutstandingPerConn == 0 {
		cfg.MaxOutstandingPerConn = d.MaxOutstandingPerConn
	}
	// MaxRetry's zero value (0, meaning "no retries") is itself valid
	// and is not backfilled.
}

package client

import "time"

// Config holds the client-side connection and pool tunables.
type Config struct {
	Host string `mapstructure:"host" validate:"required" yaml:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535" yaml:"port"`

	PoolSize    int           `mapstructure:"pool_size" validate:"min=1" yaml:"pool_size"`
	MaxRetry    int           `mapstructure:"max_retry" validate:"min=0" yaml:"max_retry"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout" validate:"min=0" yaml:"conn_timeout"`
	IOTimeout   time.Duration `mapstructure:"io_timeout" validate:"min=0" yaml:"io_timeout"`

	// MaxOutstandingPerConn is loaded, defaulted and validated, but no
	// pool reads it: the async pool's isBusy uses its own fixed
	// threshold of 8 outstanding requests per connection.
	MaxOutstandingPerConn int `mapstructure:"max_outstanding_per_conn" validate:"min=1" yaml:"max_outstanding_per_conn"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Host:                  "127.0.0.1",
		Port:                  10050,
		PoolSize:              8,
		MaxRetry:              3,
		ConnTimeout:           5 * time.Second,
		IOTimeout:             30 * time.Second,
		MaxOutstandingPerConn: 8,
	}
}

// Package metrics provides the enable/disable registry convention the
// Prometheus-backed implementations in pkg/metrics/prometheus build on:
// metrics collection is opt-in, and every collector tolerates a nil
// receiver so passing metrics through a system costs nothing when
// disabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry creates (or tears down) the package-level registry that
// every metrics.prometheus.New* constructor registers its collectors
// against. Call once during daemon startup, before constructing any
// collector.
func InitRegistry(enable bool) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		registry = nil
		return nil
	}
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry(true) has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

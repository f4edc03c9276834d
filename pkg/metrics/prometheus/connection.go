// Package prometheus provides the Prometheus-backed implementation of
// pkg/metrics' collector interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weftrpc/weft/pkg/metrics"
)

// ConnectionMetrics is the Prometheus implementation of both
// metrics.ConnectionObserver and server.Metrics: it satisfies server.Metrics
// structurally, without pkg/metrics/prometheus importing pkg/server, so a
// *ConnectionMetrics can be handed straight to Server.SetMetrics.
type ConnectionMetrics struct {
	opened     prometheus.Counter
	closed     prometheus.Counter
	idleClosed prometheus.Counter
	active     prometheus.Gauge

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
}

// NewConnectionMetrics creates a new Prometheus-backed ConnectionMetrics.
// Returns nil if metrics are not enabled (InitRegistry not called) —
// every method below tolerates a nil receiver, so callers can wire it in
// unconditionally.
func NewConnectionMetrics() *ConnectionMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &ConnectionMetrics{
		opened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "weft_connections_opened_total",
			Help: "Total number of accepted connections.",
		}),
		closed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "weft_connections_closed_total",
			Help: "Total number of connections that reached CLOSED.",
		}),
		idleClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "weft_connections_idle_closed_total",
			Help: "Total number of connections closed by the idle reaper.",
		}),
		active: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "weft_connections_active",
			Help: "Current number of open connections.",
		}),
		dispatchTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "weft_dispatch_requests_total",
			Help: "Total number of dispatched requests by method and dispatch mode.",
		}, []string{"method", "mode"}),
		dispatchDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "weft_dispatch_duration_milliseconds",
			Help: "Duration of dispatched requests in milliseconds, by method.",
			Buckets: []float64{
				0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000,
			},
		}, []string{"method"}),
		dispatchErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "weft_dispatch_errors_total",
			Help: "Total number of dispatched requests that returned an error, by method and error kind.",
		}, []string{"method", "kind"}),
	}
}

func (m *ConnectionMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.opened.Inc()
}

func (m *ConnectionMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.closed.Inc()
}

func (m *ConnectionMetrics) ConnectionIdleClosed() {
	if m == nil {
		return
	}
	m.idleClosed.Inc()
}

func (m *ConnectionMetrics) SetActiveConnections(count int) {
	if m == nil {
		return
	}
	m.active.Set(float64(count))
}

func (m *ConnectionMetrics) RecordDispatch(method, mode string, duration time.Duration, errKind string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(method, mode).Inc()
	m.dispatchDuration.WithLabelValues(method).Observe(float64(duration.Microseconds()) / 1000)
	if errKind != "" {
		m.dispatchErrors.WithLabelValues(method, errKind).Inc()
	}
}

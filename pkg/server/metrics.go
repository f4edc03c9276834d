package server

import "time"

// Metrics is implemented by an optional observer wired into a Server (via
// SetMetrics) to export connection and dispatch metrics without this
// package depending on a specific metrics backend. A nil Metrics disables
// collection with zero overhead, the same "pass nil" convention the
// teacher repo uses for its own optional metrics interfaces.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionIdleClosed()
	SetActiveConnections(count int)
	// RecordDispatch observes one completed request dispatch. errKind is
	// empty on success, else the remote error Kind's name.
	RecordDispatch(method string, mode string, duration time.Duration, errKind string)
}

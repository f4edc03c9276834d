package metrics

import "github.com/weftrpc/weft/pkg/server"

// ConnectionObserver is the subset of server.Metrics this package wires
// up from a server.State's connection-lifecycle events. server.Metrics
// additionally requires RecordDispatch, through which pkg/server reports
// dispatch metrics directly; prometheus.ConnectionMetrics implements both.
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionIdleClosed()
	SetActiveConnections(count int)
}

// WireConnectionEvents registers obs as an observer of state's connection
// lifecycle, translating each server.Event into the matching
// ConnectionObserver call. Passing a nil obs is a no-op.
func WireConnectionEvents(state *server.State, obs ConnectionObserver) {
	if obs == nil {
		return
	}
	state.OnConnectionEvent(func(ev server.Event) {
		switch ev.Kind {
		case server.EventConnectionMade:
			obs.ConnectionOpened()
			obs.SetActiveConnections(state.CurrentSize())
		case server.EventConnectionLost:
			obs.ConnectionClosed()
			obs.SetActiveConnections(state.CurrentSize())
		case server.EventIdleClosed:
			obs.ConnectionIdleClosed()
		}
	})
}

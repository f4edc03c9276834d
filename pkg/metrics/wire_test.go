package metrics

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftrpc/weft/pkg/server"
)

type fakeObserver struct {
	opened, closed, idleClosed int
	active                     int
}

func (f *fakeObserver) ConnectionOpened()          { f.opened++ }
func (f *fakeObserver) ConnectionClosed()          { f.closed++ }
func (f *fakeObserver) ConnectionIdleClosed()      { f.idleClosed++ }
func (f *fakeObserver) SetActiveConnections(n int) { f.active = n }

func TestWireConnectionEventsTranslatesEvents(t *testing.T) {
	state := server.NewState(0)
	obs := &fakeObserver{}
	WireConnectionEvents(state, obs)

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := server.NewConnection(serverSide, nil, server.NewWorkerPool(), 0, logger)

	state.ConnectionMade(conn)
	require.Equal(t, 1, obs.opened)
	require.Equal(t, 1, obs.active)

	state.ConnectionLost(conn)
	require.Equal(t, 1, obs.closed)
	require.Equal(t, 0, obs.active)
}

func TestWireConnectionEventsNilObserverIsNoop(t *testing.T) {
	state := server.NewState(0)
	require.NotPanics(t, func() {
		WireConnectionEvents(state, nil)
	})
}

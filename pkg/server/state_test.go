package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipeConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	c := NewConnection(serverSide, nil, NewWorkerPool(), 0, discardLogger())
	c.setState(stateOpen)
	return c, clientSide
}

func TestStateTracksConnectionLifecycle(t *testing.T) {
	s := NewState(0)
	c, clientSide := pipeConnection(t)
	defer clientSide.Close()

	s.ConnectionMade(c)
	require.Equal(t, 1, s.CurrentSize())

	s.ConnectionLost(c)
	require.Equal(t, 0, s.CurrentSize())
}

func TestStateEmitsEvents(t *testing.T) {
	s := NewState(0)
	var events []Event
	s.OnConnectionEvent(func(ev Event) { events = append(events, ev) })

	c, clientSide := pipeConnection(t)
	defer clientSide.Close()

	s.ConnectionMade(c)
	s.ConnectionLost(c)

	require.Len(t, events, 2)
	require.Equal(t, EventConnectionMade, events[0].Kind)
	require.Equal(t, EventConnectionLost, events[1].Kind)
}

func TestReaperClosesIdleConnections(t *testing.T) {
	s := NewState(30 * time.Millisecond)
	c, clientSide := pipeConnection(t)
	defer clientSide.Close()

	s.ConnectionMade(c)
	s.RunReaper()
	defer s.Stop()

	closed := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		_, _ = clientSide.Read(buf)
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("idle connection was not closed by the reaper")
	}
}

func TestReaperDisabledWhenMaxIdleIsZero(t *testing.T) {
	s := NewState(0)
	s.RunReaper()
	defer s.Stop()
	// No assertion beyond "doesn't panic/hang": RunReaper should be a
	// no-op, not spin a goroutine that immediately closes everything.
	time.Sleep(20 * time.Millisecond)
}

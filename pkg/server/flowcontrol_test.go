package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateStartsOpen(t *testing.T) {
	g := newGate()
	require.False(t, g.Paused())
	done := make(chan struct{})
	go func() { g.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gate should not block while open")
	}
}

func TestGatePauseBlocksWait(t *testing.T) {
	g := newGate()
	g.Pause()
	require.True(t, g.Paused())

	done := make(chan struct{})
	go func() { g.Wait(); close(done) }()

	select {
	case <-done:
		t.Fatal("gate should block while paused")
	case <-time.After(50 * time.Millisecond):
	}

	g.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gate should unblock after resume")
	}
}

func TestGatePauseResumeIdempotent(t *testing.T) {
	g := newGate()
	g.Resume()
	g.Resume()
	require.False(t, g.Paused())
	g.Pause()
	g.Pause()
	require.True(t, g.Paused())
}

func TestFlowControlDrainWaitsOnWritePause(t *testing.T) {
	fc := newFlowControl()
	fc.pauseWriting()
	require.True(t, fc.writePaused())

	done := make(chan struct{})
	go func() { fc.drain(); close(done) }()

	select {
	case <-done:
		t.Fatal("drain should block while write-paused")
	case <-time.After(50 * time.Millisecond):
	}

	fc.resumeWriting()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain should unblock after resumeWriting")
	}
}

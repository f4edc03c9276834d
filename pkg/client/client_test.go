package client

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/weftrpc/weft/pkg/wire"
)

// fakeServer accepts connections and, for each request frame it reads,
// writes back a RESPONSE frame built by respond. It is just enough of a
// server to exercise the client pools' framing and correlation without
// depending on pkg/server.
type fakeServer struct {
	ln      net.Listener
	respond func(method string, args []any) (any, error)
}

func startFakeServer(t *testing.T, respond func(method string, args []any) (any, error)) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fs := &fakeServer{ln: ln, respond: respond}
	go fs.serve()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, func() { _ = ln.Close() }
}

func (fs *fakeServer) serve() {
	for {
		c, err := fs.ln.Accept()
		if err != nil {
			return
		}
		go fs.handle(c)
	}
}

func (fs *fakeServer) handle(nc net.Conn) {
	defer nc.Close()
	parser := wire.NewParser()
	buf := make([]byte, 64*1024)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			feedErr := parser.Feed(buf[:n], func(m wire.Message) {
				arr, ok := m.Payload.([]any)
				if !ok || len(arr) != 2 {
					return
				}
				method, _ := arr[0].(string)
				args, _ := arr[1].([]any)

				result, rerr := fs.respond(method, args)
				var frame []byte
				if rerr != nil {
					frame, _ = wire.PackMessage(m.Header.Seq, wire.EventResponse, rerr)
				} else {
					frame, _ = wire.PackMessage(m.Header.Seq, wire.EventResponse, result)
				}
				_, _ = nc.Write(frame)
			})
			if feedErr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}
	}
}

func testConfig(host string, port int) Config {
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.ConnTimeout = 2 * time.Second
	cfg.IOTimeout = 2 * time.Second
	return cfg
}

func TestSyncPoolCallSuccess(t *testing.T) {
	host, port, stop := startFakeServer(t, func(method string, args []any) (any, error) {
		return "pong", nil
	})
	defer stop()

	pool := NewSyncPool(testConfig(host, port))
	defer pool.Close()

	got, err := pool.Call("ping", nil)
	require.NoError(t, err)
	require.Equal(t, "pong", got)
}

func TestSyncPoolCallError(t *testing.T) {
	host, port, stop := startFakeServer(t, func(method string, args []any) (any, error) {
		return nil, wire.NewError(wire.KindFunctionNotImplemented, "function not implemented: %q", method)
	})
	defer stop()

	pool := NewSyncPool(testConfig(host, port))
	defer pool.Close()

	_, err := pool.Call("nope", nil)
	require.Error(t, err)
	wireErr, ok := err.(*wire.Error)
	require.True(t, ok)
	require.Equal(t, wire.KindFunctionNotImplemented, wireErr.Kind)
}

func TestSyncPoolReusesConnection(t *testing.T) {
	host, port, stop := startFakeServer(t, func(method string, args []any) (any, error) {
		return "ok", nil
	})
	defer stop()

	pool := NewSyncPool(testConfig(host, port))
	defer pool.Close()

	for i := 0; i < 5; i++ {
		got, err := pool.Call("m", nil)
		require.NoError(t, err)
		require.Equal(t, "ok", got)
	}
	require.LessOrEqual(t, len(pool.idle)+1, pool.cfg.PoolSize)
}

func TestAsyncPoolCallSuccess(t *testing.T) {
	host, port, stop := startFakeServer(t, func(method string, args []any) (any, error) {
		return "pong", nil
	})
	defer stop()

	pool := NewAsyncPool(testConfig(host, port))
	defer pool.Close()

	got, err := pool.Call("ping", nil)
	require.NoError(t, err)
	require.Equal(t, "pong", got)
}

func TestAsyncPoolConcurrentCalls(t *testing.T) {
	host, port, stop := startFakeServer(t, func(method string, args []any) (any, error) {
		return method, nil
	})
	defer stop()

	pool := NewAsyncPool(testConfig(host, port))
	defer pool.Close()

	const n = 20
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			got, err := pool.Call("m"+strconv.Itoa(i), nil)
			if err != nil {
				errCh <- err
				return
			}
			if got != "m"+strconv.Itoa(i) {
				errCh <- fmt.Errorf("unexpected result %v", got)
				return
			}
			errCh <- nil
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errCh)
	}
}

func TestAsyncPoolIsBusyWithNoConnections(t *testing.T) {
	pool := NewAsyncPool(DefaultConfig())
	require.True(t, pool.isBusy())
}

func TestRequestSequenceWraps(t *testing.T) {
	gen := &sequenceGenerator{next: wire.MaxSequenceID}
	first := gen.nextSeq()
	second := gen.nextSeq()
	require.EqualValues(t, wire.MaxSequenceID, first)
	require.EqualValues(t, 0, second)
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/weftrpc/weft/pkg/declare"
)

// Server accepts connections on a TCP listener and runs one Connection
// protocol instance per accepted socket.
type Server struct {
	cfg      Config
	registry *declare.Registry
	workers  *WorkerPool
	state    *State
	logger   *slog.Logger
	metrics  Metrics

	ln net.Listener

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

// New builds a Server bound to registry, ready to Serve once started.
func New(cfg Config, registry *declare.Registry, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		workers:  NewWorkerPool(),
		state:    NewState(cfg.MaxIdleTime),
		logger:   logger,
		conns:    make(map[*Connection]struct{}),
	}
}

// State exposes the connection-tracking/idle-reaper state, e.g. for
// pkg/metrics to attach an OnConnectionEvent observer.
func (s *Server) State() *State { return s.state }

// SetMetrics attaches an optional metrics observer applied to every
// connection accepted from this point on.
func (s *Server) SetMetrics(m Metrics) { s.metrics = m }

// Listen binds the configured host:port with the documented socket
// options (SO_KEEPALIVE, TCP_NODELAY, SO_REUSEPORT falling back to
// SO_REUSEADDR) and starts the idle reaper. It does not yet accept
// connections; call Serve for that.
func (s *Server) Listen() error {
	lc := net.ListenConfig{Control: controlSocketOptions}
	ln, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln
	s.state.RunReaper()
	return nil
}

// controlSocketOptions sets SO_REUSEADDR, then SO_REUSEPORT where the
// platform supports it (see sockopts_*.go); SO_REUSEPORT is the spec's
// preferred option but SO_REUSEADDR is always set as the documented
// fallback.
func controlSocketOptions(network, address string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
		setReusePort(fd)
	})
}

// Serve accepts connections until ctx is canceled, then gracefully closes
// every tracked connection and waits for their in-flight work to drain
// before returning.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	var eg errgroup.Group
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return s.shutdown(&eg)
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}

		if tc, ok := nc.(*net.TCPConn); ok {
			_ = tc.SetKeepAlive(true)
			_ = tc.SetNoDelay(true)
		}

		conn := NewConnection(nc, s.registry, s.workers, s.cfg.ConcurrencyLimit, s.logger)
		conn.SetMetrics(s.metrics)
		conn.OnActive(func(c *Connection) { s.state.ConnectionActive(c) })
		conn.OnClose(func(c *Connection, _ error) {
			s.state.ConnectionLost(c)
			s.mu.Lock()
			delete(s.conns, c)
			s.mu.Unlock()
		})

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.state.ConnectionMade(conn)

		eg.Go(func() error {
			conn.Serve()
			return nil
		})
	}
}

// shutdown gracefully closes every tracked connection and waits for the
// accept-loop's per-connection goroutines (via eg) and each connection's
// in-flight handlers to finish.
func (s *Server) shutdown(eg *errgroup.Group) error {
	s.state.Stop()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			c.GracefulClose()
			c.WaitClosed()
		}(c)
	}
	wg.Wait()

	return eg.Wait()
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/weftrpc/weft/pkg/declare"
	"github.com/weftrpc/weft/pkg/wire"
)

type connState int32

const (
	stateConnect connState = iota
	stateOpen
	stateClosing
	stateClosed
)

type message struct {
	seq    uint16
	method string
	args   []any
}

// Connection is one accepted connection's protocol instance: composes the
// streaming frame parser with a request scheduler and flow-control unit.
type Connection struct {
	nc       net.Conn
	registry *declare.Registry
	workers  *WorkerPool
	logger   *slog.Logger
	metrics  Metrics

	concurrencyLimit int

	flow *flowControl

	mu      sync.Mutex
	state   connState
	running int
	pending []message
	wg      sync.WaitGroup

	onActive func(*Connection)
	onClose  func(*Connection, error)
}

// NewConnection wraps an accepted net.Conn in a protocol instance.
// concurrencyLimit == 0 disables the per-connection concurrency cap.
func NewConnection(nc net.Conn, registry *declare.Registry, workers *WorkerPool, concurrencyLimit int, logger *slog.Logger) *Connection {
	return &Connection{
		nc:               nc,
		registry:         registry,
		workers:          workers,
		logger:           logger,
		concurrencyLimit: concurrencyLimit,
		flow:             newFlowControl(),
		state:            stateConnect,
	}
}

// OnActive registers a hook invoked whenever this connection is observed
// doing work (data received or a response written) — used by the idle
// reaper to refresh its last-active timestamp.
func (c *Connection) OnActive(fn func(*Connection)) { c.onActive = fn }

// OnClose registers a hook invoked once, when the connection reaches
// CLOSED.
func (c *Connection) OnClose(fn func(*Connection, error)) { c.onClose = fn }

// SetMetrics attaches an optional dispatch-metrics observer. Passing nil
// disables collection.
func (c *Connection) SetMetrics(m Metrics) { c.metrics = m }

// Serve runs the read loop until the connection closes, fatally or
// gracefully. It is the caller's goroutine to own; Serve blocks.
func (c *Connection) Serve() {
	c.setState(stateOpen)
	defer c.teardown()

	parser := wire.NewParser()
	buf := make([]byte, 64*1024)

	for {
		c.flow.readGate.Wait()

		if c.isClosing() {
			return
		}

		n, err := c.nc.Read(buf)
		if n > 0 {
			c.markActive()
			feedErr := parser.Feed(buf[:n], func(m wire.Message) {
				c.onFrame(m)
			})
			if feedErr != nil {
				c.fatal(feedErr)
				return
			}
		}
		if err != nil {
			c.fatal(err)
			return
		}
	}
}

func (c *Connection) onFrame(m wire.Message) {
	if m.Header.EventType != wire.EventRequest {
		c.fatal(fmt.Errorf("server: unexpected event type %s", m.Header.EventType))
		return
	}

	arr, ok := m.Payload.([]any)
	if !ok || len(arr) != 2 {
		c.fatal(wire.NewError(wire.KindContentVerifyFailed, "invalid request payload"))
		return
	}
	method, mok := arr[0].(string)
	args, aok := arr[1].([]any)
	if !mok || !aok {
		c.fatal(wire.NewError(wire.KindContentVerifyFailed, "invalid request shape"))
		return
	}

	msg := message{seq: m.Header.Seq, method: method, args: args}

	c.mu.Lock()
	if c.concurrencyLimit != 0 && c.running >= c.concurrencyLimit {
		c.pending = append(c.pending, msg)
		c.mu.Unlock()
		c.flow.pauseReading()
		return
	}
	c.running++
	c.mu.Unlock()

	c.wg.Add(1)
	go c.respond(msg)
}

// respond runs one response task per spec 4.F: resolve, execute under the
// declared discipline, pack, write, then hand off to the completion
// callback.
func (c *Connection) respond(msg message) {
	defer c.wg.Done()

	start := time.Now()
	d := c.registry.Resolve(msg.method)

	var result any
	switch d.Mode {
	case declare.Inline:
		result = c.invoke(d, msg.args)
	case declare.Cooperative:
		result = c.invoke(d, msg.args)
	case declare.Worker:
		resultCh := make(chan any, 1)
		c.workers.Run(func() { resultCh <- c.invoke(d, msg.args) })
		result = <-resultCh
	default:
		result = c.invoke(d, msg.args)
	}

	frame, err := wire.PackMessage(msg.seq, wire.EventResponse, result)
	if err != nil {
		// Packing the result itself failed; pack the packing error instead
		// so a response is always produced.
		frame, _ = wire.PackMessage(msg.seq, wire.EventResponse, err)
	}

	if !c.isClosing() {
		if c.flow.writePaused() {
			c.flow.drain()
		}
		if _, werr := c.nc.Write(frame); werr != nil {
			c.fatal(werr)
		} else {
			c.markActive()
			c.flow.resumeReading()
		}
	}

	errKind := ""
	if wireErr, ok := result.(error); ok {
		errKind = "error"
		if we, ok := wireErr.(*wire.Error); ok {
			errKind = we.Kind.String()
		}
		c.logger.Error("handler returned error", "method", msg.method, "seq", msg.seq, "err", wireErr)
	} else {
		c.logger.Debug("handler completed", "method", msg.method, "seq", msg.seq)
	}

	if c.metrics != nil {
		c.metrics.RecordDispatch(msg.method, d.Mode.String(), time.Since(start), errKind)
	}

	c.completeTask()
}

func (c *Connection) invoke(d *declare.Declare, args []any) any {
	result, err := d.Invoke(context.Background(), args)
	if err != nil {
		return err
	}
	return result
}

func (c *Connection) completeTask() {
	c.mu.Lock()
	c.running--
	closing := c.state == stateClosing
	c.mu.Unlock()

	if closing {
		return
	}

	for {
		c.mu.Lock()
		if c.concurrencyLimit != 0 && c.running >= c.concurrencyLimit {
			c.mu.Unlock()
			break
		}
		if len(c.pending) == 0 {
			c.mu.Unlock()
			break
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		c.running++
		c.mu.Unlock()

		c.wg.Add(1)
		go c.respond(next)
	}

	c.flow.resumeReading()
}

// fatal transitions the connection to CLOSING on a transport or codec
// error and closes the underlying socket immediately; no draining of
// pending/running work is attempted, unlike GracefulClose.
func (c *Connection) fatal(err error) {
	c.mu.Lock()
	if c.state == stateClosing || c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	c.state = stateClosing
	c.mu.Unlock()

	c.flow.pauseReading()
	_ = c.nc.Close()
	c.logger.Error("connection error", "peer", c.nc.RemoteAddr(), "err", err)
}

// GracefulClose transitions the connection to CLOSING without severing
// the socket: reading is paused, no new messages are accepted, but
// pending work is drained into running and WaitClosed awaits every
// running task before the caller tears the socket down.
func (c *Connection) GracefulClose() {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return
	}
	c.state = stateClosing
	pending := c.pending
	c.pending = nil
	c.running += len(pending)
	c.mu.Unlock()

	c.flow.pauseReading()

	for _, msg := range pending {
		c.wg.Add(1)
		go c.respond(msg)
	}
}

// WaitClosed blocks until every running response task has completed,
// then closes the socket and transitions to CLOSED.
func (c *Connection) WaitClosed() {
	c.wg.Wait()
	_ = c.nc.Close()
	c.setState(stateClosed)
}

func (c *Connection) teardown() {
	c.mu.Lock()
	alreadyClosed := c.state == stateClosed
	c.state = stateClosed
	c.mu.Unlock()

	if !alreadyClosed && c.onClose != nil {
		c.onClose(c, nil)
	}
}

func (c *Connection) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connection) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosing || c.state == stateClosed
}

func (c *Connection) markActive() {
	if c.onActive != nil {
		c.onActive(c)
	}
}

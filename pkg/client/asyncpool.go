package client

import (
	"fmt"
	"io"
	"sync"

	"github.com/weftrpc/weft/pkg/wire"
)

type pendingCall struct {
	resultCh chan asyncResult
}

type asyncResult struct {
	payload any
	err     error
}

// asyncConn is one connection under the async pool's management: the
// live connection, its outstanding-request count, its seq→waiter table,
// and the background read loop feeding responses back to waiters.
type asyncConn struct {
	c           *conn
	mu          sync.Mutex
	outstanding int
	waiters     map[uint16]pendingCall
	closed      bool
}

func newAsyncConn(cfg Config) (*asyncConn, error) {
	c, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	ac := &asyncConn{c: c, waiters: make(map[uint16]pendingCall)}
	go ac.readLoop()
	return ac, nil
}

func (ac *asyncConn) readLoop() {
	parser := wire.NewParser()
	buf := make([]byte, 64*1024)
	for {
		n, err := ac.c.nc.Read(buf)
		if n > 0 {
			feedErr := parser.Feed(buf[:n], func(m wire.Message) {
				ac.complete(m.Header, m.Payload)
			})
			if feedErr != nil {
				ac.failAll(feedErr)
				_ = ac.c.close()
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			ac.failAll(&wire.TransportError{Op: "read", Err: err})
			_ = ac.c.close()
			return
		}
	}
}

// complete resolves the waiter for a response's seq, rehydrating an
// error from errno if the response carries one.
func (ac *asyncConn) complete(hdr wire.Header, payload any) {
	ac.mu.Lock()
	w, ok := ac.waiters[hdr.Seq]
	if ok {
		delete(ac.waiters, hdr.Seq)
		ac.outstanding--
	}
	ac.mu.Unlock()
	if !ok {
		return
	}

	if hdr.Errno != 0 {
		wireErr, err := wire.UnpackError(payload)
		if err != nil {
			w.resultCh <- asyncResult{err: fmt.Errorf("client: malformed error response: %w", err)}
			return
		}
		w.resultCh <- asyncResult{err: wireErr}
		return
	}
	w.resultCh <- asyncResult{payload: payload}
}

// failAll resolves every live waiter on this connection with a
// connection-lost error: a transport failure on one read loop must not
// leave other in-flight callers hanging forever.
func (ac *asyncConn) failAll(err error) {
	ac.mu.Lock()
	ac.closed = true
	waiters := ac.waiters
	ac.waiters = make(map[uint16]pendingCall)
	ac.mu.Unlock()

	for _, w := range waiters {
		w.resultCh <- asyncResult{err: err}
	}
}

func (ac *asyncConn) send(req Request) (chan asyncResult, error) {
	frame, err := req.Pack()
	if err != nil {
		return nil, err
	}

	resultCh := make(chan asyncResult, 1)

	ac.mu.Lock()
	if ac.closed {
		ac.mu.Unlock()
		return nil, &wire.TransportError{Op: "send", Err: fmt.Errorf("connection closed")}
	}
	if _, exists := ac.waiters[req.Seq]; exists {
		ac.mu.Unlock()
		return nil, fmt.Errorf("client: duplicate seq %d on connection", req.Seq)
	}
	ac.waiters[req.Seq] = pendingCall{resultCh: resultCh}
	ac.outstanding++
	ac.mu.Unlock()

	if _, err := ac.c.nc.Write(frame); err != nil {
		ac.mu.Lock()
		delete(ac.waiters, req.Seq)
		ac.outstanding--
		ac.mu.Unlock()
		return nil, &wire.TransportError{Op: "write", Err: err}
	}
	return resultCh, nil
}

func (ac *asyncConn) currentOutstanding() int {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.outstanding
}

// AsyncPool is a deque of up to cfg.PoolSize protocol instances, each
// tracking its own outstanding-request count.
type AsyncPool struct {
	cfg   Config
	mu    sync.Mutex
	deque []*asyncConn
	seq   sequenceGenerator
}

// NewAsyncPool returns an empty AsyncPool.
func NewAsyncPool(cfg Config) *AsyncPool {
	return &AsyncPool{cfg: cfg}
}

// isBusy is implemented exactly as documented, including its documented
// oddity: it is true when no connection exists yet, or when the deque is
// full and every existing connection's outstanding count is no greater
// than the fixed threshold of 8 — not cfg.MaxOutstandingPerConn, and not
// "all connections are over capacity" as the name might suggest. Whether
// this is deliberate tuning or a bug in the source this was modeled on is
// an open question; it is preserved as specified rather than corrected.
func (p *AsyncPool) isBusy() bool {
	if len(p.deque) == 0 {
		return true
	}
	if len(p.deque) < p.cfg.PoolSize {
		return false
	}
	const hardcodedThreshold = 8
	for _, ac := range p.deque {
		if ac.currentOutstanding() > hardcodedThreshold {
			return false
		}
	}
	return true
}

// acquire selects the connection to send the next request on: a fresh
// connection when busy, otherwise the deque's front, replaced if closed,
// then moved to the back.
func (p *AsyncPool) acquire() (*asyncConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isBusy() {
		ac, err := newAsyncConn(p.cfg)
		if err != nil {
			return nil, err
		}
		if len(p.deque) >= p.cfg.PoolSize {
			p.deque = p.deque[1:]
		}
		p.deque = append(p.deque, ac)
		return ac, nil
	}

	ac := p.deque[0]
	p.deque = p.deque[1:]

	ac.mu.Lock()
	closed := ac.closed
	ac.mu.Unlock()
	if closed {
		replacement, err := newAsyncConn(p.cfg)
		if err != nil {
			return nil, err
		}
		ac = replacement
	}
	p.deque = append(p.deque, ac)
	return ac, nil
}

// Call dispatches method(args) asynchronously, blocking the caller only
// on the result channel, not on connection I/O.
func (p *AsyncPool) Call(method string, args []any) (any, error) {
	ac, err := p.acquire()
	if err != nil {
		return nil, err
	}

	req := NewRequest(&p.seq, method, args)
	resultCh, err := ac.send(req)
	if err != nil {
		return nil, err
	}

	result := <-resultCh
	return result.payload, result.err
}

// Close closes every connection currently tracked by the pool.
func (p *AsyncPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ac := range p.deque {
		_ = ac.c.close()
	}
	p.deque = nil
}

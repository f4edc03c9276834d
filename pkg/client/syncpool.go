package client

import (
	"fmt"

	"github.com/weftrpc/weft/pkg/wire"
)

// SyncPool is a bounded buffered queue of connections with an expansion
// budget: when the queue is empty, a new connection is created on demand
// rather than blocking the caller.
type SyncPool struct {
	cfg  Config
	idle chan *conn
	seq  sequenceGenerator
}

// NewSyncPool returns a SyncPool that creates connections lazily.
func NewSyncPool(cfg Config) *SyncPool {
	return &SyncPool{cfg: cfg, idle: make(chan *conn, cfg.PoolSize)}
}

// Call dispatches method(args) over one pooled connection: one request is
// in flight per checked-out connection at a time, so request and response
// are correlated implicitly by connection ownership rather than by seq.
func (p *SyncPool) Call(method string, args []any) (any, error) {
	c, err := p.acquire()
	if err != nil {
		return nil, err
	}

	req := NewRequest(&p.seq, method, args)
	frame, err := req.Pack()
	if err != nil {
		_ = c.close()
		return nil, err
	}

	hdr, payload, err := c.roundTrip(frame)
	if err != nil {
		_ = c.close()
		return nil, err
	}

	p.release(c)

	if hdr.Errno != 0 {
		wireErr, uerr := wire.UnpackError(payload)
		if uerr != nil {
			return nil, fmt.Errorf("client: malformed error response: %w", uerr)
		}
		return nil, wireErr
	}
	return payload, nil
}

func (p *SyncPool) acquire() (*conn, error) {
	select {
	case c := <-p.idle:
		if c.closed {
			return dial(p.cfg)
		}
		return c, nil
	default:
		return dial(p.cfg)
	}
}

// release returns c to the idle queue if there's room; otherwise it is
// closed rather than leaked.
func (p *SyncPool) release(c *conn) {
	select {
	case p.idle <- c:
	default:
		_ = c.close()
	}
}

// Close drains and closes every idle connection.
func (p *SyncPool) Close() {
	for {
		select {
		case c := <-p.idle:
			_ = c.close()
		default:
			return
		}
	}
}

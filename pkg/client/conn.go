package client

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/weftrpc/weft/pkg/wire"
)

// conn wraps a single TCP connection to a server with the framed
// request/response primitives the pools build on. It is not safe for
// concurrent use by more than one in-flight request at a time; the sync
// pool enforces this by construction (one request per checked-out conn),
// the async pool by its own outstanding-count bookkeeping.
type conn struct {
	nc        net.Conn
	ioTimeout time.Duration
	closed    bool
}

func dial(cfg Config) (*conn, error) {
	d := net.Dialer{Timeout: cfg.ConnTimeout}
	nc, err := d.Dial("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, &wire.TransportError{Op: "dial", Err: err}
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetNoDelay(true)
	}
	return &conn{nc: nc, ioTimeout: cfg.IOTimeout}, nil
}

func (c *conn) close() error {
	c.closed = true
	return c.nc.Close()
}

// roundTrip writes a packed request frame and reads back exactly one
// response frame: the 8-byte header, then its payload body. Any I/O
// failure is reported as a *wire.TransportError so callers can apply
// transport-only retry policy.
func (c *conn) roundTrip(frame []byte) (wire.Header, any, error) {
	if c.ioTimeout > 0 {
		_ = c.nc.SetDeadline(time.Now().Add(c.ioTimeout))
	}

	if _, err := c.nc.Write(frame); err != nil {
		return wire.Header{}, nil, &wire.TransportError{Op: "write", Err: err}
	}

	var hdrBuf [wire.HeaderSize]byte
	if _, err := io.ReadFull(c.nc, hdrBuf[:]); err != nil {
		return wire.Header{}, nil, &wire.TransportError{Op: "read-header", Err: err}
	}
	hdr, err := wire.DecodeHeader(hdrBuf[:])
	if err != nil {
		return wire.Header{}, nil, err
	}

	body := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(c.nc, body); err != nil {
			return wire.Header{}, nil, &wire.TransportError{Op: "read-body", Err: err}
		}
	}

	payload, err := wire.UnpackPayload(hdr.CompressFlag, body)
	if err != nil {
		return hdr, nil, err
	}
	return hdr, payload, nil
}

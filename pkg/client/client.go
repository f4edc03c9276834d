package client

import (
	"errors"

	"github.com/weftrpc/weft/pkg/wire"
)

// caller is satisfied by both SyncPool and AsyncPool.
type caller interface {
	Call(method string, args []any) (any, error)
	Close()
}

// Client wraps a pool with a retry policy: only transport-class failures
// (connect/read/write/timeout) are retried, up to cfg.MaxRetry additional
// attempts; application errors (a *wire.Error the remote handler
// returned) are never retried.
type Client struct {
	pool     caller
	maxRetry int
}

// NewSyncClient builds a retrying Client backed by a SyncPool.
func NewSyncClient(cfg Config) *Client {
	return &Client{pool: NewSyncPool(cfg), maxRetry: cfg.MaxRetry}
}

// NewAsyncClient builds a retrying Client backed by an AsyncPool.
func NewAsyncClient(cfg Config) *Client {
	return &Client{pool: NewAsyncPool(cfg), maxRetry: cfg.MaxRetry}
}

// Call dispatches method(args), retrying only on transport-class errors.
func (cl *Client) Call(method string, args []any) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= cl.maxRetry; attempt++ {
		result, err := cl.pool.Call(method, args)
		if err == nil {
			return result, nil
		}
		lastErr = err
		var transportErr *wire.TransportError
		if !errors.As(err, &transportErr) {
			return nil, err
		}
	}
	return nil, lastErr
}

// Close releases the underlying pool's connections.
func (cl *Client) Close() {
	cl.pool.Close()
}

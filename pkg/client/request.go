// Package client implements the caller side of the fabric: a request
// object, synchronous and asynchronous connection pools, and a retrying
// wrapper that only ever retries transport-class failures.
package client

import (
	"sync/atomic"

	"github.com/weftrpc/weft/pkg/wire"
)

// sequenceGenerator hands out per-producer monotonically cycling sequence
// numbers in [0, wire.MaxSequenceID], wrapping back to 0. It is producer
// local: distinct producers (e.g. distinct goroutines each holding their
// own generator) need not coordinate with each other, only the
// connection-scoped waiter table enforces uniqueness within one
// connection's live set.
type sequenceGenerator struct {
	next uint32
}

func (g *sequenceGenerator) nextSeq() uint16 {
	v := atomic.AddUint32(&g.next, 1) - 1
	return uint16(v % (wire.MaxSequenceID + 1))
}

// Request is one outbound call: a method name and its positional
// arguments, plus the sequence number assigned to it.
type Request struct {
	Seq    uint16
	Method string
	Args   []any
}

// NewRequest allocates a Request with the next sequence number from gen.
func NewRequest(gen *sequenceGenerator, method string, args []any) Request {
	return Request{Seq: gen.nextSeq(), Method: method, Args: args}
}

// Pack serializes the request as a framed REQUEST whose payload is
// [method, args].
func (r Request) Pack() ([]byte, error) {
	payload := []any{r.Method, argsToAny(r.Args)}
	return wire.PackMessage(r.Seq, wire.EventRequest, payload)
}

func argsToAny(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

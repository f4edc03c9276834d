// Package declare implements the method registry: binding a name to a
// positional-argument handler, a dispatch mode, and an optional argument
// coercion hook.
package declare

import (
	"context"
	"fmt"

	"github.com/weftrpc/weft/pkg/wire"
)

// DispatchMode selects how a registered handler is run when a request for
// it arrives.
type DispatchMode int

const (
	// Inline runs the handler synchronously within the request's own
	// response goroutine; the connection's read loop keeps reading.
	Inline DispatchMode = iota
	// Cooperative runs exactly like Inline: synchronously within the
	// request's response goroutine.
	Cooperative
	// Worker runs the handler on the server's fixed-size, process-wide
	// worker pool, waiting for a free slot first.
	Worker
)

func (m DispatchMode) String() string {
	switch m {
	case Inline:
		return "INLINE"
	case Cooperative:
		return "COOPERATIVE"
	case Worker:
		return "WORKER"
	default:
		return "UNKNOWN"
	}
}

// Handler is a registered method implementation. It receives the exact
// positional arguments the caller sent, already coerced if a CoerceFunc was
// supplied at registration.
type Handler func(ctx context.Context, args []any) (any, error)

// CoerceFunc adjusts or validates a call's arguments before Handler runs. It
// stands in for a server-side assurance pass (defaulting, type narrowing,
// content verification) distinct from the handler itself.
type CoerceFunc func(args []any) ([]any, error)

// Declare is one registered method: its name, its accepted arity, the mode
// it dispatches under, and its implementation.
type Declare struct {
	Name     string
	MinArity int
	MaxArity int
	Mode     DispatchMode
	Handler  Handler
	Coerce   CoerceFunc
	dummy    bool
}

func dummyHandler(name string) Handler {
	return func(ctx context.Context, args []any) (any, error) {
		return nil, wire.NewError(wire.KindFunctionNotImplemented, "function not implemented: %q", name)
	}
}

// NewDummy returns a placeholder Declare for a name that has no registered
// implementation: invoking it always fails with FunctionNotImplemented.
// The registry falls back to this rather than rejecting a call for an
// unknown name outright, mirroring a server that always has *some* declare
// object to dispatch against.
func NewDummy(name string) *Declare {
	return &Declare{Name: name, MinArity: 0, MaxArity: -1, Mode: Inline, Handler: dummyHandler(name), dummy: true}
}

// New registers a method with a fixed arity (min == max) and no coercion.
func New(name string, arity int, mode DispatchMode, handler Handler) (*Declare, error) {
	return NewWithDefaults(name, arity, arity, mode, handler, nil)
}

// NewWithDefaults registers a method that accepts between minArity and
// maxArity positional arguments — maxArity accounts for trailing
// parameters with defaults. A variadic or keyword-only signature has no
// Go equivalent to reject here; the arity bounds are the entire contract,
// decided once at registration rather than inspected per call.
func NewWithDefaults(name string, minArity, maxArity int, mode DispatchMode, handler Handler, coerce CoerceFunc) (*Declare, error) {
	if name == "" {
		return nil, fmt.Errorf("declare: name must not be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("declare: %q: handler must not be nil", name)
	}
	if minArity < 0 || maxArity < minArity {
		return nil, fmt.Errorf("declare: %q: invalid arity bounds [%d, %d]", name, minArity, maxArity)
	}
	return &Declare{
		Name:     name,
		MinArity: minArity,
		MaxArity: maxArity,
		Mode:     mode,
		Handler:  handler,
		Coerce:   coerce,
	}, nil
}

// Bind validates the argument count against the declared arity and applies
// the coercion hook, if any, returning the arguments to invoke Handler
// with.
func (d *Declare) Bind(args []any) ([]any, error) {
	if len(args) < d.MinArity || (d.MaxArity >= 0 && len(args) > d.MaxArity) {
		return nil, wire.NewError(wire.KindContentVerifyFailed,
			"%s: expected between %d and %d arguments, got %d", d.Name, d.MinArity, d.MaxArity, len(args))
	}
	if d.Coerce != nil {
		coerced, err := d.Coerce(args)
		if err != nil {
			return nil, wire.NewError(wire.KindContentVerifyFailed, "%s: %v", d.Name, err)
		}
		return coerced, nil
	}
	return args, nil
}

// Invoke binds and runs the handler in one step.
func (d *Declare) Invoke(ctx context.Context, args []any) (any, error) {
	bound, err := d.Bind(args)
	if err != nil {
		return nil, err
	}
	return d.Handler(ctx, bound)
}

func (d *Declare) String() string {
	return fmt.Sprintf("<Declare name=%q mode=%s>", d.Name, d.Mode)
}

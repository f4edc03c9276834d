package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single dispatched
// call, or the wider lifetime of a connection when Method/Seq are unset.
type LogContext struct {
	TraceID       string    // OpenTelemetry trace ID
	SpanID        string    // OpenTelemetry span ID
	CorrelationID string    // NewCorrelationID(), spans a connection's whole lifetime
	ConnectionID  string    // Connection identifier (local<->remote addr pair or similar)
	Method        string    // Dispatched method name
	Seq           uint32    // Wire sequence number of the in-flight request
	DispatchMode  string    // inline, cooperative, or worker
	ClientIP      string    // Client IP address (without port)
	StartTime     time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new connection-scoped LogContext with a fresh
// correlation ID and the given client IP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		CorrelationID: NewCorrelationID(),
		ClientIP:      clientIP,
		StartTime:     time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:       lc.TraceID,
		SpanID:        lc.SpanID,
		CorrelationID: lc.CorrelationID,
		ConnectionID:  lc.ConnectionID,
		Method:        lc.Method,
		Seq:           lc.Seq,
		DispatchMode:  lc.DispatchMode,
		ClientIP:      lc.ClientIP,
		StartTime:     lc.StartTime,
	}
}

// WithConnection returns a copy with the connection identifier set
func (lc *LogContext) WithConnection(connectionID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ConnectionID = connectionID
	}
	return clone
}

// WithDispatch returns a copy with the method/seq/dispatch mode of an
// in-flight request set, refreshing StartTime to the moment of dispatch.
func (lc *LogContext) WithDispatch(method string, seq uint32, mode string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Method = method
		clone.Seq = seq
		clone.DispatchMode = mode
		clone.StartTime = time.Now()
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently across
// log statements so log aggregation/querying can rely on stable names.
const (
	// ========================================================================
	// Distributed Tracing / Correlation
	// ========================================================================
	KeyTraceID       = "trace_id"       // OpenTelemetry trace ID for request correlation
	KeySpanID        = "span_id"        // OpenTelemetry span ID for operation tracking
	KeyCorrelationID = "correlation_id" // Connection-scoped correlation ID (NewCorrelationID)

	// ========================================================================
	// Connection
	// ========================================================================
	KeyConnectionID = "connection_id" // Connection identifier (addr pair or similar)
	KeyClientIP     = "client_ip"     // Client IP address
	KeyClientPort   = "client_port"   // Client source port
	KeyRemoteAddr   = "remote_addr"   // Full remote address (host:port)
	KeyLocalAddr    = "local_addr"    // Full local address (host:port)
	KeyState        = "state"         // Connection protocol state (CONNECT, OPEN, CLOSING, CLOSED)

	// ========================================================================
	// Dispatch
	// ========================================================================
	KeyMethod        = "method"        // Dispatched method name
	KeySeq           = "seq"           // Wire sequence number of a request
	KeyDispatchMode  = "dispatch_mode" // inline, cooperative, or worker
	KeyArity         = "arity"         // Declared handler arity

	// ========================================================================
	// Wire Protocol
	// ========================================================================
	KeyErrno        = "errno"         // Coarse 3-bit header error signal
	KeyErrorKind    = "error_kind"    // Fine-grained error kind carried in the payload
	KeyCompressed   = "compressed"    // Whether the frame was brotli-compressed
	KeyPayloadBytes = "payload_bytes" // Decoded payload size in bytes
	KeyFrameBytes   = "frame_bytes"   // Raw frame size on the wire

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Process / Supervision
	// ========================================================================
	KeyWorkerPID   = "worker_pid"   // Supervised worker process ID
	KeyMemoryBytes = "memory_bytes" // Worker RSS in bytes
	KeyWorkerCount = "worker_count" // Number of active workers

	// ========================================================================
	// Scheduling
	// ========================================================================
	KeyQueueDepth = "queue_depth" // Pending task count in a dispatch queue
	KeyPoolSize   = "pool_size"   // Connection/worker pool size
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// CorrelationID returns a slog.Attr for a connection-scoped correlation ID
func CorrelationID(id string) slog.Attr {
	return slog.String(KeyCorrelationID, id)
}

// ConnectionID returns a slog.Attr for connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// RemoteAddr returns a slog.Attr for the full remote address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// LocalAddr returns a slog.Attr for the full local address
func LocalAddr(addr string) slog.Attr {
	return slog.String(KeyLocalAddr, addr)
}

// State returns a slog.Attr for connection protocol state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Method returns a slog.Attr for the dispatched method name
func Method(name string) slog.Attr {
	return slog.String(KeyMethod, name)
}

// Seq returns a slog.Attr for the wire sequence number
func Seq(seq uint32) slog.Attr {
	return slog.Any(KeySeq, seq)
}

// DispatchMode returns a slog.Attr for the dispatch mode
func DispatchMode(mode string) slog.Attr {
	return slog.String(KeyDispatchMode, mode)
}

// Arity returns a slog.Attr for a declared handler's arity
func Arity(n int) slog.Attr {
	return slog.Int(KeyArity, n)
}

// Errno returns a slog.Attr for the coarse header error signal
func Errno(n int) slog.Attr {
	return slog.Int(KeyErrno, n)
}

// ErrorKind returns a slog.Attr for the fine-grained error kind
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Compressed returns a slog.Attr for whether a frame was compressed
func Compressed(c bool) slog.Attr {
	return slog.Bool(KeyCompressed, c)
}

// PayloadBytes returns a slog.Attr for decoded payload size
func PayloadBytes(n int) slog.Attr {
	return slog.Int(KeyPayloadBytes, n)
}

// FrameBytes returns a slog.Attr for the raw frame size on the wire
func FrameBytes(n int) slog.Attr {
	return slog.Int(KeyFrameBytes, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// WorkerPID returns a slog.Attr for a supervised worker's process ID
func WorkerPID(pid int) slog.Attr {
	return slog.Int(KeyWorkerPID, pid)
}

// MemoryBytes returns a slog.Attr for a worker's RSS in bytes
func MemoryBytes(n uint64) slog.Attr {
	return slog.Uint64(KeyMemoryBytes, n)
}

// WorkerCount returns a slog.Attr for the number of active workers
func WorkerCount(n int) slog.Attr {
	return slog.Int(KeyWorkerCount, n)
}

// QueueDepth returns a slog.Attr for pending task count in a dispatch queue
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// PoolSize returns a slog.Attr for connection/worker pool size
func PoolSize(n int) slog.Attr {
	return slog.Int(KeyPoolSize, n)
}

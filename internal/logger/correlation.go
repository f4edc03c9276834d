package logger

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"
	"time"
)

// correlationIDGenerator produces mongo ObjectId-style identifiers: 4 bytes
// of Unix time, 5 bytes of process identity, 3 bytes of rolling counter.
// Unlike the wire's per-request seq, a correlation ID spans a connection's
// entire lifetime and survives across the many seqs multiplexed over it.
type correlationIDGenerator struct {
	mu          sync.Mutex
	pid         int
	processID   [5]byte
	counter     uint32
	counterMask uint32
}

const counterMax = 0xFFFFFF

var defaultCorrelationGen = newCorrelationIDGenerator()

func newCorrelationIDGenerator() *correlationIDGenerator {
	g := &correlationIDGenerator{
		pid:         os.Getpid(),
		counterMask: counterMax,
	}
	g.refreshProcessID()
	var seed [4]byte
	_, _ = rand.Read(seed[:])
	g.counter = (uint32(seed[0])<<16 | uint32(seed[1])<<8 | uint32(seed[2])) & g.counterMask
	return g
}

func (g *correlationIDGenerator) refreshProcessID() {
	_, _ = rand.Read(g.processID[:])
}

func (g *correlationIDGenerator) next() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	if pid := os.Getpid(); pid != g.pid {
		g.pid = pid
		g.refreshProcessID()
	}

	id := make([]byte, 12)
	now := uint32(time.Now().Unix())
	id[0] = byte(now >> 24)
	id[1] = byte(now >> 16)
	id[2] = byte(now >> 8)
	id[3] = byte(now)

	copy(id[4:9], g.processID[:])

	count := g.counter
	id[9] = byte(count >> 16)
	id[10] = byte(count >> 8)
	id[11] = byte(count)
	g.counter = (count + 1) & g.counterMask

	return id
}

// NewCorrelationID returns a new 12-byte identifier, hex-encoded, unique per
// process and monotonic within a one-second time bucket. Intended for
// LogContext.CorrelationID, to tie together every log line emitted for a
// single connection across the many requests it carries.
func NewCorrelationID() string {
	return hex.EncodeToString(defaultCorrelationGen.next())
}

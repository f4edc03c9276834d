// Package supervisor fans a single binary out into multiple worker
// processes and respawns any that exceed a memory ceiling.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// pollInterval is how often the supervisor checks worker memory usage.
const pollInterval = 100 * time.Millisecond

// workerProc tracks one re-exec'd worker process and the goroutine
// reaping it, so a dead worker is noticed without ever leaving a zombie
// behind.
type workerProc struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (w *workerProc) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Supervisor starts `workers` copies of the current binary (re-exec'd
// with WorkerArgs, since Go has no fork-with-closure equivalent to the
// source this is modeled on) and watches them: a dead worker is not
// restarted automatically, but a worker whose RSS exceeds
// WorkerMemoryLimit is killed and replaced.
type Supervisor struct {
	// WorkerArgs are the arguments passed to a re-exec of os.Args[0] to
	// run it in worker mode (e.g. ["--worker"]).
	WorkerArgs []string
	// WorkerMemoryLimit is the RSS ceiling in bytes; 0 disables the
	// memory watch entirely.
	WorkerMemoryLimit uint64
	Logger            *slog.Logger

	mu      sync.Mutex
	workers []*workerProc
}

// Start launches the given number of worker processes and blocks,
// polling their liveness and memory usage, until ctx is canceled. On
// cancellation every worker is terminated and Start waits for them to
// exit before returning. When workers > 0 and every worker has exited on
// its own, Start also returns nil without waiting for ctx.
func (s *Supervisor) Start(ctx context.Context, workers int) error {
	s.logger().Info("started supervisor", "pid", os.Getpid())

	for i := 0; i < workers; i++ {
		if err := s.spawn(); err != nil {
			return fmt.Errorf("supervisor: spawn worker %d: %w", i, err)
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			s.logger().Info("stopped supervisor", "pid", os.Getpid())
			return nil
		case <-ticker.C:
			s.reap()
			s.checkMemory()
			if s.activeCount() == 0 && workers > 0 {
				return nil
			}
		}
	}
}

func (s *Supervisor) spawn() error {
	cmd := exec.Command(os.Args[0], s.WorkerArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}

	w := &workerProc{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(w.done)
	}()

	s.mu.Lock()
	s.workers = append(s.workers, w)
	s.mu.Unlock()
	return nil
}

// reap drops workers that have exited on their own; it does not restart
// them, matching the spawn-once-per-slot contract (only the memory-watch
// path replaces a worker).
func (s *Supervisor) reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := s.workers[:0]
	for _, w := range s.workers {
		if w.exited() {
			s.logger().Warn("worker exited", "pid", w.cmd.Process.Pid)
			continue
		}
		alive = append(alive, w)
	}
	s.workers = alive
}

func (s *Supervisor) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

func (s *Supervisor) checkMemory() {
	if s.WorkerMemoryLimit == 0 {
		return
	}

	s.mu.Lock()
	workers := append([]*workerProc{}, s.workers...)
	s.mu.Unlock()

	for _, w := range workers {
		if w.exited() {
			continue
		}
		pid := int32(w.cmd.Process.Pid)
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		mem, err := proc.MemoryInfo()
		if err != nil || mem == nil {
			continue
		}
		if mem.RSS > s.WorkerMemoryLimit {
			s.logger().Warn("worker killed: memory overflow", "pid", pid, "rss", mem.RSS, "limit", s.WorkerMemoryLimit)
			_ = w.cmd.Process.Signal(syscall.SIGINT)
			if err := s.spawn(); err != nil {
				s.logger().Error("failed to respawn worker", "err", err)
			}
		}
	}
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	workers := append([]*workerProc{}, s.workers...)
	s.workers = nil
	s.mu.Unlock()

	for _, w := range workers {
		_ = w.cmd.Process.Signal(syscall.SIGTERM)
	}
	for _, w := range workers {
		<-w.done
	}
}

func (s *Supervisor) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

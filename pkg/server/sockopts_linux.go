//go:build linux

package server

import "golang.org/x/sys/unix"

// setReusePort sets SO_REUSEPORT on fd. Best-effort: a failure here still
// leaves SO_REUSEADDR (set by the caller) in place.
func setReusePort(fd uintptr) {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

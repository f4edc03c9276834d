//go:build !linux

package server

// setReusePort is a no-op on platforms without SO_REUSEPORT;
// SO_REUSEADDR (set by the caller) is the documented fallback.
func setReusePort(fd uintptr) {}

package netutil

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	// SSHWaitTimeout is the default timeout for waiting for a hub's SSH port to become available
	SSHWaitTimeout = 2 * time.Minute
	// probeTimeout bounds a single connection attempt
	probeTimeout = 2 * time.Second
)

// Probe reports whether a TCP port accepts connections right now.
func Probe(host string, port int) bool {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", address, probeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitForPort waits for a TCP port to be open.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Try immediately before falling back to the ticker.
	if Probe(host, port) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout waiting for %s", address)
			}
			return ctx.Err()
		case <-ticker.C:
			if Probe(host, port) {
				return nil
			}
		}
	}
}

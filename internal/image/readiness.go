package image

import (
	"context"
	"fmt"
	"net"
	"time"
)

const dialRetryInterval = 50 * time.Millisecond

// WaitListening dials addr until it accepts a TCP connection or timeout elapses.
func WaitListening(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	var lastErr error
	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s did not accept connections within %s: %w", addr, timeout, lastErr)
		case <-time.After(dialRetryInterval):
		}
	}
}

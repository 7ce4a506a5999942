package zusiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Dialer opens the transport to the server. *net.Dialer implements Dialer.
type Dialer interface {
	DialContext(ctx context.Context, network string, address string) (net.Conn, error)
}

var _ Dialer = (*net.Dialer)(nil)

// connect opens the transport to the configured address, bounded by the connect timeout.
// Whatever was opened is closed again on failure.
func (c *Client) connect(ctx context.Context) (conn net.Conn, err error) {
	c.metrics.incConnectAttemptCount()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connect %s: panic: %v", c.address, r)
		}
		if err != nil && conn != nil {
			_ = conn.Close()
			conn = nil
		}
	}()

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.connectTimeout)
	defer cancel()

	conn, err = c.dialer.DialContext(dialCtx, "tcp", c.address)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.address, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("connect %s: %w", c.address, errors.New("dialer returned no connection"))
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err = tcpConn.SetNoDelay(true); err != nil {
			return conn, fmt.Errorf("connect %s: %w", c.address, err)
		}
	}

	// fail early on a connection that cannot honor the I/O timeout
	if err = conn.SetDeadline(time.Now().Add(c.cfg.ioTimeout)); err != nil {
		return conn, fmt.Errorf("connect %s: %w", c.address, err)
	}

	return conn, nil
}

// send writes the pending bytes of the codec send buffer to conn.
// A write that cannot complete within the I/O timeout fails.
func (c *Client) send(conn net.Conn) error {
	for buf := c.codec.SendBuffer(); len(buf) > 0; buf = c.codec.SendBuffer() {
		if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.ioTimeout)); err != nil {
			return err
		}

		n, err := conn.Write(buf)
		if n > 0 {
			c.codec.MarkSent(n)
			c.metrics.addBytesSent(n)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrShortWrite
		}
	}

	return nil
}

package zusiclient

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/arloliu/go-zusi/logger"
	"github.com/arloliu/go-zusi/zusi"
)

// startReader starts the reader goroutine draining conn into the codec.
func (c *Client) startReader(conn net.Conn) error {
	ctx := c.readerTasks.Context()

	return c.readerTasks.Start("readerTask", func() bool {
		return c.readOnce(ctx, conn)
	})
}

// readOnce performs one receive and decodes what was read.
// It returns false when the reader goroutine has to exit.
func (c *Client) readOnce(ctx context.Context, conn net.Conn) bool {
	if c.phase.Load() == PhaseClosed {
		return false
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ioTimeout)); err != nil {
		c.logger.Warn("failed to set read deadline", "method", "readOnce", "error", err)
		c.phase.requestDispose()

		return false
	}

	// the driver moves the deadline to now after cancelling ctx, re-check to not miss it
	if ctx.Err() != nil {
		return false
	}

	n, err := conn.Read(c.codec.RecvBuffer())
	if n > 0 {
		c.metrics.addBytesRecv(n)
		if !c.decode(n) {
			return false
		}
	}

	if err == nil {
		return true
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return ctx.Err() == nil && c.running.Load() && c.phase.Load() != PhaseClosed

	case errors.Is(err, io.EOF):
		c.logger.Info("server closed connection", "address", c.address)

	default:
		if ctx.Err() == nil {
			c.logger.Error("failed to read from server", "method", "readOnce", "address", c.address, "error", err)
		}
	}

	c.phase.requestDispose()

	return false
}

// decode feeds n received bytes into the codec. It returns false if the stream
// cannot be continued.
func (c *Client) decode(n int) bool {
	err := c.codec.Decode(n)
	if err == nil {
		if c.logger.Level() == logger.DebugLevel {
			c.logger.Debug("bytes decoded", "method", "decode", "size", n, "ackLevel", c.codec.AckLevel().String())
		}

		return true
	}

	c.metrics.incDecodeErrCount()

	if errors.Is(err, zusi.ErrMalformed) || errors.Is(err, zusi.ErrBufferOverflow) {
		c.logger.Error("undecodable data received, dispose session", "method", "decode", "error", err)
		c.phase.requestDispose()

		return false
	}

	if errors.Is(err, zusi.ErrRejected) {
		c.logger.Warn("handshake rejected by server", "method", "decode", "error", err)
	} else {
		c.logger.Warn("failed to decode data", "method", "decode", "error", err)
	}

	return true
}

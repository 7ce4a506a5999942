package zusiclient

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-zusi/internal/pool"
	"github.com/arloliu/go-zusi/internal/task"
	"github.com/arloliu/go-zusi/logger"
	"github.com/arloliu/go-zusi/zusi"
)

// Client maintains the connection of one driver's desk client to a Zusi 3 server.
//
// After Start, the driver goroutine connects, runs the handshake
// (HELLO, ACK_HELLO, NEEDED_DATA, ACK_NEEDED_DATA) and keeps the session in operation.
// Any failure disposes the session and the client reconnects until Stop is called.
type Client struct {
	pctx context.Context

	cfg      *ClientConfig
	logger   logger.Logger
	metrics  *ConnectionMetrics
	name     string
	version  string
	codec    Codec
	registry registry
	phase    *phaseMgr

	startMu     sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	driverTasks *task.Manager
	readerTasks *task.Manager
	running     atomic.Bool
	done        chan struct{}

	dialer  Dialer
	address string

	// owned by the driver goroutine
	conn        net.Conn
	ackDeadline time.Time
}

// NewClient creates a client announcing itself with name and version in HELLO.
//
// handler is invoked on the reader goroutine for every subscribed value received, it may be nil.
// The client is bound to ctx: cancelling ctx stops it like Stop.
func NewClient(ctx context.Context, name string, version string, handler zusi.DataHandler, opts ...ClientOption) (*Client, error) {
	if name == "" {
		return nil, ErrInvalidClientName
	}

	cfg, err := newClientConfig(opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		pctx:    ctx,
		cfg:     cfg,
		logger:  cfg.logger,
		metrics: &ConnectionMetrics{},
		name:    name,
		version: version,
		codec:   cfg.codec,
	}

	if c.codec == nil {
		c.codec = zusi.NewSession(cfg.recvBufferSize, cfg.sendBufferSize, cfg.maxNeededData, handler)
	}

	c.phase = newPhaseMgr(c, c.logger, c.metrics, cfg.phaseHandler)

	return c, nil
}

// Start launches the driver goroutine connecting to host:port through dialer and returns immediately.
//
// It returns ErrAlreadyStarted if the client is running. A stopped client can be started again.
func (c *Client) Start(dialer Dialer, host string, port int) error {
	if dialer == nil {
		return ErrDialerNil
	}
	if host == "" || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s:%d", ErrInvalidAddress, host, port)
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	// a previous run may still be shutting down, wait for it without blocking Stop and Done
	for {
		if c.running.Load() {
			return ErrAlreadyStarted
		}

		prev := c.done
		if prev == nil || isClosed(prev) {
			break
		}

		c.startMu.Unlock()
		<-prev
		c.startMu.Lock()
	}

	if err := c.pctx.Err(); err != nil {
		return err
	}

	c.dialer = dialer
	c.address = net.JoinHostPort(host, strconv.Itoa(port))
	c.ctx, c.cancel = context.WithCancel(c.pctx)
	c.driverTasks = task.NewManager(c.ctx, c.logger)
	c.readerTasks = task.NewManager(c.ctx, c.logger)
	c.done = make(chan struct{})
	c.phase.reset()
	c.metrics.resetConnRetryGauge()

	c.running.Store(true)

	if err := c.driverTasks.StartWithCancel("driverTask", c.driverTask, c.shutdown); err != nil {
		c.running.Store(false)
		c.cancel()
		close(c.done)

		return err
	}

	c.logger.Info("client started", "name", c.name, "version", c.version, "address", c.address)

	return nil
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Stop requests the client to shut down and returns without waiting.
//
// The phase is forced to Dispose immediately, the driver then stops the reader, closes the
// transport and exits. Done is closed once that happened. Stop before Start is a no-op.
func (c *Client) Stop() {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if !c.running.CompareAndSwap(true, false) {
		return
	}

	c.logger.Debug("stop requested", "method", "Stop", "phase", c.phase.Load().String())

	c.phase.forceDispose()
	c.cancel()
}

// Done returns a channel closed when the driver goroutine has exited.
// It returns a closed channel if the client was never started.
func (c *Client) Done() <-chan struct{} {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.done == nil {
		ch := make(chan struct{})
		close(ch)

		return ch
	}

	return c.done
}

// Status returns the connection status projected from the current phase.
func (c *Client) Status() Status {
	return StatusOf(c.phase.Load())
}

// Phase returns the current phase.
func (c *Client) Phase() Phase {
	return c.phase.Load()
}

// AddNeededData subscribes the value (subgroup, id). Received values are stored into target.
//
// Entries are sent with the next NEEDED_DATA, in the order they were added. Entries added
// after the handshake completed take effect on the next connection.
// The codec errors zusi.ErrNilTarget, zusi.ErrDuplicateNeededData and zusi.ErrNeededDataFull
// are returned as is, the phase is not affected.
func (c *Client) AddNeededData(subgroup uint16, id uint16, target zusi.Target) error {
	return c.registry.add(c.codec, NeededData{Subgroup: subgroup, ID: id, Target: target})
}

// NeededData returns the registered subscriptions in the order they were added.
func (c *Client) NeededData() []NeededData {
	return c.registry.list()
}

// ServerInfo returns the server identification of the current session, or nil if the
// server has not accepted HELLO or the codec does not provide it.
func (c *Client) ServerInfo() *zusi.ServerInfo {
	if s, ok := c.codec.(interface{ ServerInfo() *zusi.ServerInfo }); ok {
		return s.ServerInfo()
	}

	return nil
}

// GetMetrics returns the metrics of the client.
func (c *Client) GetMetrics() *ConnectionMetrics {
	return c.metrics
}

// GetLogger returns the logger of the client.
func (c *Client) GetLogger() logger.Logger {
	return c.logger
}

// driverTask runs one phase handler and sleeps one tick.
func (c *Client) driverTask() bool {
	if !c.running.Load() {
		return false
	}

	c.step()

	return pool.Sleep(c.ctx, c.cfg.tickInterval)
}

func (c *Client) step() {
	switch phase := c.phase.Load(); phase {
	case PhaseClosed:
		c.handleClosed()
	case PhaseOpen:
		c.handleOpen()
	case PhaseHello:
		c.handleHello()
	case PhaseAckHello:
		c.handleAck(PhaseAckHello, zusi.AckHelloOK)
	case PhaseNeededData:
		c.handleNeededData()
	case PhaseAckNeeded:
		c.handleAck(PhaseAckNeeded, zusi.AckNeededDataOK)
	case PhaseOperation:
		// steady state, the reader reports failures
	case PhaseDispose:
		c.teardown()
		pool.Sleep(c.ctx, c.cfg.disposeCooldown)
	default:
		c.logger.Error("unexpected phase, dispose session", "method", "step", "phase", uint32(phase))
		c.phase.forceDispose()
	}
}

func (c *Client) handleClosed() {
	conn, err := c.connect(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}

		c.metrics.incConnRetryGauge()
		c.logger.Warn("failed to connect to server",
			"address", c.address, "retry", c.metrics.ConnRetryGauge.Load(), "delay", c.cfg.reconnectDelay, "error", err)
		pool.Sleep(c.ctx, c.cfg.reconnectDelay)

		return
	}

	c.metrics.resetConnRetryGauge()
	c.conn = conn
	if c.phase.advance(PhaseClosed, PhaseOpen) {
		c.logger.Info("connected to server", "address", c.address)
	}
	// otherwise Stop forced Dispose, the next tick or the shutdown closes conn
}

func (c *Client) handleOpen() {
	c.codec.Reset()

	if err := c.startReader(c.conn); err != nil {
		c.logger.Error("failed to start reader", "method", "handleOpen", "error", err)
		c.phase.dispose(PhaseOpen)

		return
	}

	c.phase.advance(PhaseOpen, PhaseHello)
}

func (c *Client) handleHello() {
	if err := c.sendHandshake("HELLO", func() error { return c.codec.EncodeHello(c.name, c.version) }); err != nil {
		c.phase.dispose(PhaseHello)
		return
	}

	c.setAckDeadline()
	c.phase.advance(PhaseHello, PhaseAckHello)
}

func (c *Client) handleNeededData() {
	subs := c.registry.subscriptions()
	if err := c.sendHandshake("NEEDED_DATA", func() error { return c.codec.EncodeNeededData(subs) }); err != nil {
		c.phase.dispose(PhaseNeededData)
		return
	}

	c.setAckDeadline()
	c.phase.advance(PhaseNeededData, PhaseAckNeeded)
}

// handleAck advances phase once the codec reached the acknowledgement level want.
func (c *Client) handleAck(phase Phase, want zusi.AckLevel) {
	if c.codec.AckLevel() >= want {
		next, _ := phase.Next()
		if c.phase.advance(phase, next) && next == PhaseOperation {
			c.logger.Info("session online", "address", c.address, "neededData", len(c.registry.subscriptions()))
		}

		return
	}

	if c.cfg.ackTimeout > 0 && time.Now().After(c.ackDeadline) {
		c.metrics.incAckTimeoutCount()
		c.logger.Error("handshake acknowledgement timeout, dispose session",
			"phase", phase.String(), "timeout", c.cfg.ackTimeout, "error", ErrAckTimeout)
		c.phase.dispose(phase)
	}
}

func (c *Client) setAckDeadline() {
	c.ackDeadline = time.Now().Add(c.cfg.ackTimeout)
}

// sendHandshake encodes a handshake message with encode and sends it.
func (c *Client) sendHandshake(msgName string, encode func() error) error {
	if err := encode(); err != nil {
		c.metrics.incMsgSendErrCount()
		c.logger.Error("failed to encode message", "method", "sendHandshake", "msg", msgName, "error", err)

		return err
	}

	if err := c.send(c.conn); err != nil {
		c.metrics.incMsgSendErrCount()
		c.logger.Error("failed to send message", "method", "sendHandshake", "msg", msgName, "error", err)

		return err
	}

	c.metrics.incMsgSendCount()
	c.logger.Debug("message sent", "method", "sendHandshake", "msg", msgName)

	return nil
}

// teardown resets Dispose to Closed, joins the reader and closes the transport.
func (c *Client) teardown() {
	c.phase.reset()

	c.readerTasks.Stop()
	if c.conn != nil {
		// interrupt a pending receive
		_ = c.conn.SetReadDeadline(time.Now())
	}
	c.readerTasks.Wait()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("failed to close connection", "method", "teardown", "error", err)
		}
		c.conn = nil
	}
}

// shutdown runs when the driver goroutine exits.
func (c *Client) shutdown() {
	c.running.Store(false)
	// a session torn down by the last tick is already Closed
	if c.phase.Load() != PhaseClosed {
		c.phase.forceDispose()
	}
	c.teardown()
	c.cancel()

	c.logger.Info("client stopped", "name", c.name, "address", c.address)

	close(c.done)
}

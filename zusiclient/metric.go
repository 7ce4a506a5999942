package zusiclient

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a client.
// Metrics can be exported to Prometheus with NewMetricsCollector.
type ConnectionMetrics struct {
	// ConnectAttemptCount indicates the number of transport connect attempts.
	ConnectAttemptCount atomic.Uint64
	// ConnRetryGauge indicates the number of consecutive failed connect attempts.
	ConnRetryGauge atomic.Uint32

	// PhaseChangeCount indicates the number of phase transitions.
	PhaseChangeCount atomic.Uint64
	// OnlineCount indicates how many times the handshake completed.
	OnlineCount atomic.Uint64
	// DisposeCount indicates how many times a session was torn down.
	DisposeCount atomic.Uint64
	// AckTimeoutCount indicates the number of handshake acknowledgement timeouts.
	AckTimeoutCount atomic.Uint64

	// MsgSendCount indicates the number of handshake messages sent.
	MsgSendCount atomic.Uint64
	// MsgSendErrCount indicates the number of failed handshake message sends.
	MsgSendErrCount atomic.Uint64
	// BytesSentCount indicates the number of bytes written to the transport.
	BytesSentCount atomic.Uint64
	// BytesRecvCount indicates the number of bytes read from the transport.
	BytesRecvCount atomic.Uint64
	// DecodeErrCount indicates the number of failed decode calls.
	DecodeErrCount atomic.Uint64
}

func (m *ConnectionMetrics) incConnectAttemptCount() {
	m.ConnectAttemptCount.Add(1)
}

func (m *ConnectionMetrics) incConnRetryGauge() {
	m.ConnRetryGauge.Add(1)
}

func (m *ConnectionMetrics) resetConnRetryGauge() {
	m.ConnRetryGauge.Store(0)
}

func (m *ConnectionMetrics) incPhaseChangeCount() {
	m.PhaseChangeCount.Add(1)
}

func (m *ConnectionMetrics) incOnlineCount() {
	m.OnlineCount.Add(1)
}

func (m *ConnectionMetrics) incDisposeCount() {
	m.DisposeCount.Add(1)
}

func (m *ConnectionMetrics) incAckTimeoutCount() {
	m.AckTimeoutCount.Add(1)
}

func (m *ConnectionMetrics) incMsgSendCount() {
	m.MsgSendCount.Add(1)
}

func (m *ConnectionMetrics) incMsgSendErrCount() {
	m.MsgSendErrCount.Add(1)
}

func (m *ConnectionMetrics) addBytesSent(n int) {
	m.BytesSentCount.Add(uint64(n)) //nolint:gosec
}

func (m *ConnectionMetrics) addBytesRecv(n int) {
	m.BytesRecvCount.Add(uint64(n)) //nolint:gosec
}

func (m *ConnectionMetrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

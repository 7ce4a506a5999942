package zusiclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "zusi_client"

type metricDesc struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(c *Client) float64
}

// MetricsCollector exposes the ConnectionMetrics, the status and the phase of a client as
// Prometheus metrics. Values are read when the collector is scraped.
type MetricsCollector struct {
	client *Client
	descs  []metricDesc
}

var _ prometheus.Collector = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector for c. Every metric carries the constant label
// "client" with the client name.
func NewMetricsCollector(c *Client) *MetricsCollector {
	labels := prometheus.Labels{"client": c.name}

	newDesc := func(name string, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, nil, labels)
	}
	counter := func(name string, help string, value func(m *ConnectionMetrics) uint64) metricDesc {
		return metricDesc{
			desc:      newDesc(name, help),
			valueType: prometheus.CounterValue,
			value:     func(c *Client) float64 { return float64(value(c.metrics)) },
		}
	}

	return &MetricsCollector{
		client: c,
		descs: []metricDesc{
			counter("connect_attempts_total", "Number of transport connect attempts.",
				func(m *ConnectionMetrics) uint64 { return m.ConnectAttemptCount.Load() }),
			counter("phase_changes_total", "Number of phase transitions.",
				func(m *ConnectionMetrics) uint64 { return m.PhaseChangeCount.Load() }),
			counter("online_total", "Number of completed handshakes.",
				func(m *ConnectionMetrics) uint64 { return m.OnlineCount.Load() }),
			counter("dispose_total", "Number of disposed sessions.",
				func(m *ConnectionMetrics) uint64 { return m.DisposeCount.Load() }),
			counter("ack_timeouts_total", "Number of handshake acknowledgement timeouts.",
				func(m *ConnectionMetrics) uint64 { return m.AckTimeoutCount.Load() }),
			counter("messages_sent_total", "Number of handshake messages sent.",
				func(m *ConnectionMetrics) uint64 { return m.MsgSendCount.Load() }),
			counter("message_send_errors_total", "Number of failed handshake message sends.",
				func(m *ConnectionMetrics) uint64 { return m.MsgSendErrCount.Load() }),
			counter("sent_bytes_total", "Number of bytes written to the server.",
				func(m *ConnectionMetrics) uint64 { return m.BytesSentCount.Load() }),
			counter("received_bytes_total", "Number of bytes read from the server.",
				func(m *ConnectionMetrics) uint64 { return m.BytesRecvCount.Load() }),
			counter("decode_errors_total", "Number of failed decode calls.",
				func(m *ConnectionMetrics) uint64 { return m.DecodeErrCount.Load() }),
			{
				desc:      newDesc("connect_retries", "Number of consecutive failed connect attempts."),
				valueType: prometheus.GaugeValue,
				value:     func(c *Client) float64 { return float64(c.metrics.ConnRetryGauge.Load()) },
			},
			{
				desc:      newDesc("status", "Connection status: 0 closed, 1 connecting, 2 online, 3 faulty."),
				valueType: prometheus.GaugeValue,
				value:     func(c *Client) float64 { return float64(c.Status()) },
			},
			{
				desc:      newDesc("phase", "Current connection phase."),
				valueType: prometheus.GaugeValue,
				value:     func(c *Client) float64 { return float64(c.Phase()) },
			},
		},
	}
}

// Describe implements prometheus.Collector.
func (mc *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range mc.descs {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector.
func (mc *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, d := range mc.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, d.valueType, d.value(mc.client))
	}
}

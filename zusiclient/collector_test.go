package zusiclient

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		require.Len(t, family.GetMetric(), 1)
		m := family.GetMetric()[0]
		require.Equal(t, "client", m.GetLabel()[0].GetName())
		require.Equal(t, "Fahrpult", m.GetLabel()[0].GetValue())

		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}

		return m.GetGauge().GetValue()
	}

	t.Fatalf("metric %s not gathered", name)

	return 0
}

func TestMetricsCollector(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require := require.New(t)

	srv := newTestServer(t, true, true)
	srv.start()
	defer srv.close()

	client, err := NewClient(context.Background(), "Fahrpult", "1.0", nil, testOptions(&phaseRecorder{})...)
	require.NoError(err)

	collector := NewMetricsCollector(client)
	require.Equal(13, testutil.CollectAndCount(collector))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(reg.Register(collector))

	problems, err := testutil.CollectAndLint(collector)
	require.NoError(err)
	require.Empty(problems)

	require.Zero(gatherValue(t, reg, "zusi_client_connect_attempts_total"))
	require.InDelta(float64(StatusClosed), gatherValue(t, reg, "zusi_client_status"), 0)

	require.NoError(client.Start(&net.Dialer{}, testIP, srv.port))
	require.Eventually(func() bool { return client.Status() == StatusOnline }, testWaitTimeout, testPollTick)

	require.InDelta(1, gatherValue(t, reg, "zusi_client_connect_attempts_total"), 0)
	require.InDelta(1, gatherValue(t, reg, "zusi_client_online_total"), 0)
	require.InDelta(2, gatherValue(t, reg, "zusi_client_messages_sent_total"), 0)
	require.InDelta(float64(StatusOnline), gatherValue(t, reg, "zusi_client_status"), 0)
	require.InDelta(float64(PhaseOperation), gatherValue(t, reg, "zusi_client_phase"), 0)

	stopClient(t, client)

	expected := `
# HELP zusi_client_status Connection status: 0 closed, 1 connecting, 2 online, 3 faulty.
# TYPE zusi_client_status gauge
zusi_client_status{client="Fahrpult"} 0
`
	require.NoError(testutil.CollectAndCompare(collector, strings.NewReader(expected), "zusi_client_status"))
}

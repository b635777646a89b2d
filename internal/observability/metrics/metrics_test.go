package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestBoardMetricsObserve(t *testing.T) {
	m := NewBoardMetrics(prometheus.NewRegistry())

	m.ObserveWrite("update", "ok", 0.02)
	m.ObserveWrite("update", "ok", 0.03)
	m.ObserveFeedEvent("update", "suppressed")
	m.ObserveCacheFallback()
	m.SetFeedClients(3)
	m.ObserveLogin(false)

	assert.Equal(t, 2.0, counterValue(t, m.writesTotal.WithLabelValues("update", "ok")))
	assert.Equal(t, 1.0, counterValue(t, m.feedEventsTotal.WithLabelValues("update", "suppressed")))
	assert.Equal(t, 1.0, counterValue(t, m.cacheFallbacks))
	assert.Equal(t, 3.0, counterValue(t, m.feedClients))
	assert.Equal(t, 1.0, counterValue(t, m.loginsTotal.WithLabelValues("failure")))
}

func TestBoardMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	defer func() { prometheus.DefaultRegisterer = prev }()

	NewBoardMetrics(nil)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBoardMetricsNilSafe(t *testing.T) {
	var m *BoardMetrics
	m.ObserveWrite("insert", "error", 0.1)
	m.ObserveFeedEvent("delete", "applied")
	m.ObserveCacheFallback()
	m.SetFeedClients(1)
	m.ObserveLogin(true)
}

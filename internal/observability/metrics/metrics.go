package metrics

import "github.com/prometheus/client_golang/prometheus"

// BoardMetrics exposes counters, histograms and gauges for the treatment board.
type BoardMetrics struct {
	writesTotal     *prometheus.CounterVec
	writeLatency    *prometheus.HistogramVec
	feedEventsTotal *prometheus.CounterVec
	cacheFallbacks  prometheus.Counter
	feedClients     prometheus.Gauge
	loginsTotal     *prometheus.CounterVec
}

// NewBoardMetrics registers the board collectors on reg, or on the default
// registerer when reg is nil.
func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	m := &BoardMetrics{
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herbal",
			Subsystem: "board",
			Name:      "writes_total",
			Help:      "Patient writes by operation and outcome",
		}, []string{"op", "status"}),
		writeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "herbal",
			Subsystem: "board",
			Name:      "write_latency_seconds",
			Help:      "Latency of persisting a patient write",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		feedEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herbal",
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Change feed events by type and handling",
		}, []string{"type", "outcome"}),
		cacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herbal",
			Subsystem: "cache",
			Name:      "fallback_reads_total",
			Help:      "List reads served from the local cache because the store failed",
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herbal",
			Subsystem: "feed",
			Name:      "websocket_clients",
			Help:      "Open websocket connections",
		}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herbal",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.writesTotal, m.writeLatency, m.feedEventsTotal, m.cacheFallbacks, m.feedClients, m.loginsTotal)
	return m
}

func (m *BoardMetrics) ObserveWrite(op, status string, seconds float64) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(op, status).Inc()
	m.writeLatency.WithLabelValues(op).Observe(seconds)
}

func (m *BoardMetrics) ObserveFeedEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.feedEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *BoardMetrics) ObserveCacheFallback() {
	if m == nil {
		return
	}
	m.cacheFallbacks.Inc()
}

func (m *BoardMetrics) SetFeedClients(n int) {
	if m == nil {
		return
	}
	m.feedClients.Set(float64(n))
}

func (m *BoardMetrics) ObserveLogin(success bool) {
	if m == nil {
		return
	}
	status := "failure"
	if success {
		status = "success"
	}
	m.loginsTotal.WithLabelValues(status).Inc()
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the draft board collectors on their own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	latency      prometheus.Histogram
	connection   *prometheus.GaugeVec
	serverEvents *prometheus.CounterVec
	fitFailures  prometheus.Counter
}

var statuses = []string{"disconnected", "connecting", "connected", "degraded"}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftboard_transactions_total",
			Help: "Draft and remove transactions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "draftboard_transaction_seconds",
			Help:    "Time from issuing an intent to its settlement.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 15},
		}),
		connection: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "draftboard_connection_status",
			Help: "1 for the current connection status and transport, 0 otherwise.",
		}, []string{"status", "transport"}),
		serverEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftboard_server_events_total",
			Help: "Realtime events received from the draft server.",
		}, []string{"event"}),
		fitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftboard_fit_refresh_failures_total",
			Help: "Position analysis requests that failed.",
		}),
	}
	m.registry.MustRegister(
		m.transactions, m.latency, m.connection, m.serverEvents, m.fitFailures,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Transaction(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(kind, outcome).Inc()
	if elapsed > 0 {
		m.latency.Observe(elapsed.Seconds())
	}
}

// Refused counts a transaction that never left the client.
func (m *Metrics) Refused(kind, reason string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(kind, "refused_"+reason).Inc()
}

func (m *Metrics) ConnectionStatus(status, transport string) {
	if m == nil {
		return
	}
	for _, s := range statuses {
		for _, tr := range []string{"primary", "fallback"} {
			v := 0.0
			if s == status && tr == transport {
				v = 1
			}
			m.connection.WithLabelValues(s, tr).Set(v)
		}
	}
}

func (m *Metrics) ServerEvent(event string) {
	if m == nil {
		return
	}
	m.serverEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) FitFailure() {
	if m == nil {
		return
	}
	m.fitFailures.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// Package metrics holds the Prometheus instruments for the quote gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Quote outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeNoRoute = "no_route"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	QuoteRequests *prometheus.CounterVec   // labels: engine, outcome
	QuoteDuration *prometheus.HistogramVec // labels: engine
	RPCRetries    prometheus.Counter
	AuthRejected  *prometheus.CounterVec // labels: reason
}

// New registers every instrument on a private registry, so tests can build
// as many as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		QuoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swapquote_quote_requests_total",
			Help: "Quote requests by engine and outcome",
		}, []string{"engine", "outcome"}),
		QuoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swapquote_quote_duration_seconds",
			Help:    "Time spent inside the routing engine",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"engine"}),
		RPCRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swapquote_rpc_retries_total",
			Help: "eth_call attempts retried after a transient failure",
		}),
		AuthRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swapquote_auth_rejected_total",
			Help: "Requests rejected by the API key gate",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.QuoteRequests,
		m.QuoteDuration,
		m.RPCRetries,
		m.AuthRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuote records one engine call. A nil *Metrics is a no-op.
func (m *Metrics) ObserveQuote(engine, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.QuoteRequests.WithLabelValues(engine, outcome).Inc()
	m.QuoteDuration.WithLabelValues(engine).Observe(took.Seconds())
}

// Rejected counts a request that never reached the engine.
func (m *Metrics) Rejected(engine string) {
	if m == nil {
		return
	}
	m.QuoteRequests.WithLabelValues(engine, OutcomeInvalid).Inc()
}

// RetryHook is meant for ethcall.Caller.OnRetry.
func (m *Metrics) RetryHook(error) {
	if m == nil {
		return
	}
	m.RPCRetries.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

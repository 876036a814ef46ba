package httpapi

import (
	"net/http"

	"koperasihub/internal/gate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "koperasihub"

// Metrics owns its registry so tests can build as many handlers as they like.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestErrors   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
	GateDecisions   *prometheus.CounterVec
	CartMutations   *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "status"}),
		RequestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "http_requests_errors_total",
			Help:      "HTTP requests answered with status >= 400",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Routing gate decisions by action and rule",
		}, []string{"action", "rule"}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation",
		}, []string{"op"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"scope"}),
	}
	m.Registry.MustRegister(
		m.RequestsTotal,
		m.RequestErrors,
		m.RequestDuration,
		m.GateDecisions,
		m.CartMutations,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGate satisfies gate.Observer.
func (m *Metrics) ObserveGate(r *http.Request, d gate.Decision) {
	m.GateDecisions.WithLabelValues(d.Action.String(), d.Rule).Inc()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alertbridge"

// Metrics holds the bridge collectors on a private registry so that several
// instances (tests, mostly) never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal       *prometheus.CounterVec
	CacheSaveErrors  prometheus.Counter
	UpstreamDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Fetch hop responses by source: fresh, not_modified, fallback or failed.",
		}, []string{"source"}),
		CacheSaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_save_errors_total",
			Help:      "Failed writes of the durable feed cache.",
		}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Latency of conditional GETs against the upstream feed.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.FetchTotal, m.CacheSaveErrors, m.UpstreamDuration)
	return m
}

func (m *Metrics) ObserveFetch(source string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveSaveError() {
	if m == nil {
		return
	}
	m.CacheSaveErrors.Inc()
}

func (m *Metrics) ObserveUpstream(seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamDuration.Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

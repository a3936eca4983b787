package affiliation

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the resolution engine.
type Metrics struct {
	resolutions *prometheus.CounterVec
	duration    prometheus.Histogram
	cacheEvents *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers resolution metrics against the provided registerer.
// When the registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_affiliation_resolutions_total",
			Help: "Affiliation resolutions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_affiliation_resolution_duration_seconds",
			Help:    "Wall time of a single affiliation resolution.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_affiliation_cache_events_total",
			Help: "Resolved-set cache hits, misses, and bypasses.",
		}, []string{"event"}),
	}
	registerer.MustRegister(m.resolutions, m.duration, m.cacheEvents)
	return m
}

// ObserveResolution records one completed resolution.
func (m *Metrics) ObserveResolution(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// CacheEvent records a cache hit, miss, or bypass.
func (m *Metrics) CacheEvent(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

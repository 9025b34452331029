package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lookup engine. All methods are safe
// on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	// Cache lookups by result: hit, miss, expired
	CacheLookups *prometheus.CounterVec

	// Entries dropped to stay within the configured capacity
	CacheEvictions prometheus.Counter

	// Current number of entries in the in-memory cache
	CacheEntries prometheus.Gauge

	// Provider call latencies by provider
	ProviderLatency *prometheus.HistogramVec

	// Provider outcomes by provider and outcome (ok or an error category)
	ProviderResults *prometheus.CounterVec

	// Fan-outs actually executed, and calls that shared one with other callers
	Fanouts       prometheus.Counter
	SharedFlights prometheus.Counter

	// End-to-end Aggregate latency by source: cache or fanout
	AggregateLatency *prometheus.HistogramVec
}

// New creates and registers all lookup metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numlookup_cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),

		CacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "numlookup_cache_evictions_total",
			Help: "Cache entries evicted because the cache was full",
		}),

		CacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "numlookup_cache_entries",
			Help: "Current number of in-memory cache entries",
		}),

		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "numlookup_provider_duration_seconds",
			Help:    "Duration of provider lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		ProviderResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numlookup_provider_results_total",
			Help: "Provider lookup outcomes",
		}, []string{"provider", "outcome"}),

		Fanouts: f.NewCounter(prometheus.CounterOpts{
			Name: "numlookup_fanouts_total",
			Help: "Provider fan-outs executed",
		}),

		SharedFlights: f.NewCounter(prometheus.CounterOpts{
			Name: "numlookup_shared_flights_total",
			Help: "Aggregate calls whose fan-out was shared between concurrent callers",
		}),

		AggregateLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "numlookup_aggregate_duration_seconds",
			Help:    "Duration of Aggregate calls",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
	}
}

// ObserveCacheLookup records a cache hit, miss or expired read.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementEvictions records a capacity eviction.
func (m *Metrics) IncrementEvictions() {
	if m != nil {
		m.CacheEvictions.Inc()
	}
}

// SetCacheEntries records the current cache size.
func (m *Metrics) SetCacheEntries(n int) {
	if m != nil {
		m.CacheEntries.Set(float64(n))
	}
}

// ObserveProvider records the latency and outcome of one provider call.
func (m *Metrics) ObserveProvider(provider, outcome string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
		m.ProviderResults.WithLabelValues(provider, outcome).Inc()
	}
}

// IncrementFanouts records an executed fan-out.
func (m *Metrics) IncrementFanouts() {
	if m != nil {
		m.Fanouts.Inc()
	}
}

// IncrementSharedFlights records a caller served by another caller's fan-out.
func (m *Metrics) IncrementSharedFlights() {
	if m != nil {
		m.SharedFlights.Inc()
	}
}

// ObserveAggregate records the duration of an Aggregate call.
func (m *Metrics) ObserveAggregate(source string, d time.Duration) {
	if m != nil {
		m.AggregateLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

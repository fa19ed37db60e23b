package likecache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a cache. A nil *Metrics records nothing.
type Metrics struct {
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	BatchesDispatchedTotal prometheus.Counter
	BatchSize              prometheus.Histogram
	RemoteQueryErrorsTotal prometheus.Counter
	RemoteQueryDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of like status lookups served from a fresh cache entry.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of like status lookups that joined a batch.",
		}),
		BatchesDispatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_dispatched_total",
			Help:      "Total number of batches dispatched to the remote like query.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of distinct posts queried per dispatched batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		RemoteQueryErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_query_errors_total",
			Help:      "Total number of remote like queries that failed and were degraded.",
		}),
		RemoteQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_query_duration_seconds",
			Help:      "Latency of individual remote like queries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.BatchesDispatchedTotal,
			m.BatchSize,
			m.RemoteQueryErrorsTotal,
			m.RemoteQueryDuration,
		)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.CacheHitsTotal.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.CacheMissesTotal.Inc()
	}
}

func (m *Metrics) dispatched(distinct int) {
	if m != nil {
		m.BatchesDispatchedTotal.Inc()
		m.BatchSize.Observe(float64(distinct))
	}
}

func (m *Metrics) remoteQuery(took time.Duration, err error) {
	if m == nil {
		return
	}
	m.RemoteQueryDuration.Observe(took.Seconds())
	if err != nil {
		m.RemoteQueryErrorsTotal.Inc()
	}
}

package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every custom metric the service exports.
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// User lookup Metrics
	UserLookupsTotal *prometheus.CounterVec

	// Database Metrics
	DBQueryDuration *prometheus.HistogramVec

	// Cache (Redis) Metrics
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CacheEvictionsTotal *prometheus.CounterVec

	// Queue (RabbitMQ) Metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
	QueueMessagesFailed    *prometheus.CounterVec
}

// NewMetrics registers all metrics on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		UserLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_lookups_total",
				Help: "Total number of user lookups by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome: found, not_found, error
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"query_type"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),

		CacheEvictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_evictions_total",
				Help: "Total number of cache evictions triggered by user events",
			},
			[]string{"action"},
		),

		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name"},
		),

		QueueMessagesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_failed_total",
				Help: "Total number of queue messages that could not be handled",
			},
			[]string{"queue_name", "reason"},
		),
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) ObserveUserLookup(operation, outcome string) {
	if m == nil {
		return
	}
	m.UserLookupsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveDBQuery(queryType string, d time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(queryType).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(keyType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(keyType).Inc()
}

func (m *Metrics) CacheMiss(keyType string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (m *Metrics) CacheEviction(action string) {
	if m == nil {
		return
	}
	m.CacheEvictionsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) MessagePublished(queue string) {
	if m == nil {
		return
	}
	m.QueueMessagesPublished.WithLabelValues(queue).Inc()
}

func (m *Metrics) MessageConsumed(queue string) {
	if m == nil {
		return
	}
	m.QueueMessagesConsumed.WithLabelValues(queue).Inc()
}

func (m *Metrics) MessageFailed(queue, reason string) {
	if m == nil {
		return
	}
	m.QueueMessagesFailed.WithLabelValues(queue, reason).Inc()
}

// GlobalMetrics is registered on the default prometheus registry by InitMetrics.
var GlobalMetrics *Metrics

var initOnce sync.Once

// InitMetrics initializes GlobalMetrics once per process.
func InitMetrics() {
	initOnce.Do(func() {
		GlobalMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
}

package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordFeedFetch(provider, status string, duration time.Duration)
	RecordAggregation(duration time.Duration, incidents int)
	RecordCacheResult(result string)
	RecordReportSubmission(outcome string)
	SetProviderStatus(provider string, rank int)
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordFeedFetch(provider, status string, duration time.Duration) {}
func (m *NoOpMetrics) RecordAggregation(duration time.Duration, incidents int)        {}
func (m *NoOpMetrics) RecordCacheResult(result string)                                {}
func (m *NoOpMetrics) RecordReportSubmission(outcome string)                          {}
func (m *NoOpMetrics) SetProviderStatus(provider string, rank int)                    {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)                           {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string)                         {}
func (m *NoOpMetrics) Handler() http.Handler                                          { return http.NotFoundHandler() }

// PrometheusMetrics records metrics into a Prometheus registry.
type PrometheusMetrics struct {
	gatherer prometheus.Gatherer

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	feedFetches       *prometheus.CounterVec
	feedFetchDuration *prometheus.HistogramVec
	aggregations      prometheus.Histogram
	incidents         prometheus.Gauge
	cacheResults      *prometheus.CounterVec
	reports           *prometheus.CounterVec
	providerStatus    *prometheus.GaugeVec
	dbConnections     prometheus.Gauge
	dbQueries         *prometheus.CounterVec
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer, gatherer prometheus.Gatherer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		gatherer: gatherer,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuswatch_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statuswatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuswatch_feed_fetches_total",
			Help: "Feed fetches by provider and outcome",
		}, []string{"provider", "status"}),
		feedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statuswatch_feed_fetch_duration_seconds",
			Help:    "Feed fetch and parse duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		aggregations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statuswatch_aggregation_duration_seconds",
			Help:    "Duration of a full aggregation pass",
			Buckets: prometheus.DefBuckets,
		}),
		incidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statuswatch_incidents",
			Help: "Incidents in the latest snapshot",
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuswatch_fetch_cache_results_total",
			Help: "Response cache lookups by result (hit, miss, shared)",
		}, []string{"result"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuswatch_report_submissions_total",
			Help: "User report submissions by outcome",
		}, []string{"outcome"}),
		providerStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statuswatch_provider_status",
			Help: "Provider status rank (0 operational, 1 maintenance, 2 degraded, 3 issues)",
		}, []string{"provider"}),
		dbConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statuswatch_db_connections_active",
			Help: "Active database connections",
		}),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuswatch_db_queries_total",
			Help: "Database queries by operation and status",
		}, []string{"operation", "status"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.feedFetches, m.feedFetchDuration,
		m.aggregations, m.incidents,
		m.cacheResults, m.reports, m.providerStatus,
		m.dbConnections, m.dbQueries,
	)
	return m
}

func (m *PrometheusMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordFeedFetch(provider, status string, duration time.Duration) {
	m.feedFetches.WithLabelValues(provider, status).Inc()
	m.feedFetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordAggregation(duration time.Duration, incidents int) {
	m.aggregations.Observe(duration.Seconds())
	m.incidents.Set(float64(incidents))
}

func (m *PrometheusMetrics) RecordCacheResult(result string) {
	m.cacheResults.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) RecordReportSubmission(outcome string) {
	m.reports.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) SetProviderStatus(provider string, rank int) {
	m.providerStatus.WithLabelValues(provider).Set(float64(rank))
}

func (m *PrometheusMetrics) SetDBConnectionsActive(count float64) {
	m.dbConnections.Set(count)
}

func (m *PrometheusMetrics) RecordDBQuery(operation, status string) {
	m.dbQueries.WithLabelValues(operation, status).Inc()
}

func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Global metrics instance
var (
	globalMetrics Metrics = &NoOpMetrics{}
	initOnce      sync.Once
)

// Init switches the global instance to Prometheus on the default registry.
func Init() {
	initOnce.Do(func() {
		globalMetrics = NewPrometheus(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
}

// Set replaces the global instance. Intended for tests.
func Set(m Metrics) {
	globalMetrics = m
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordFeedFetch records one provider fetch with its outcome
func RecordFeedFetch(provider, status string, duration time.Duration) {
	globalMetrics.RecordFeedFetch(provider, status, duration)
}

// RecordAggregation records an aggregation pass
func RecordAggregation(duration time.Duration, incidents int) {
	globalMetrics.RecordAggregation(duration, incidents)
}

// RecordCacheResult records a response cache lookup
func RecordCacheResult(result string) {
	globalMetrics.RecordCacheResult(result)
}

// RecordReportSubmission records a report submission outcome
func RecordReportSubmission(outcome string) {
	globalMetrics.RecordReportSubmission(outcome)
}

// SetProviderStatus publishes the status rank of a provider
func SetProviderStatus(provider string, rank int) {
	globalMetrics.SetProviderStatus(provider, rank)
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	globalMetrics.SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	globalMetrics.RecordDBQuery(operation, status)
}

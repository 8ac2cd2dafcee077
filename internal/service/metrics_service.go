package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates the Prometheus instrumentation: HTTP traffic,
// graph query latency and the consensus sweep counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec

	endReviewsCreated prometheus.Counter
	autoApprovals     prometheus.Counter
	snapshotsCreated  prometheus.Counter
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_query_duration_seconds",
		Help:    "Duration of graph database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	endReviewsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consensus_end_reviews_created_total",
		Help: "End review requests created by the sweep",
	})

	autoApprovals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consensus_auto_approvals_total",
		Help: "End reviews auto approved after the response window lapsed",
	})

	snapshotsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_snapshots_created_total",
		Help: "Portfolio snapshots written before project deletion",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, queryDuration,
		endReviewsCreated, autoApprovals, snapshotsCreated, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		queryDuration:     queryDuration,
		endReviewsCreated: endReviewsCreated,
		autoApprovals:     autoApprovals,
		snapshotsCreated:  snapshotsCreated,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.requestDuration.With(labels).Observe(duration.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveQuery records one graph query by transaction kind.
func (m *MetricsService) ObserveQuery(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// CountEndReviews adds to the end review sweep counter.
func (m *MetricsService) CountEndReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.endReviewsCreated.Add(float64(n))
}

// CountAutoApprovals adds to the auto approval counter.
func (m *MetricsService) CountAutoApprovals(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autoApprovals.Add(float64(n))
}

// CountSnapshots adds to the snapshot counter.
func (m *MetricsService) CountSnapshots(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.snapshotsCreated.Add(float64(n))
}

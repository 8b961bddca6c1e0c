// Package metrics provides Prometheus metrics for the screening service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's Prometheus metrics on its own registry, so the
// scrape surface stays free of default Go collector noise.
type Manager struct {
	registry *prometheus.Registry

	// Screening metrics.
	AssessmentsScored *prometheus.CounterVec
	ScoringErrors     prometheus.Counter
	ResultLogErrors   prometheus.Counter

	// HTTP metrics.
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewManager builds a manager with all metrics registered on a fresh
// registry.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Manager{
		registry: registry,
		AssessmentsScored: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mindscreen",
				Name:      "assessments_scored_total",
				Help:      "Total number of assessments scored, by instrument and risk tier",
			},
			[]string{"instrument", "tier"},
		),
		ScoringErrors: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "mindscreen",
			Name:      "scoring_errors_total",
			Help:      "Total number of rejected or failed scoring requests",
		}),
		ResultLogErrors: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "mindscreen",
			Name:      "result_log_errors_total",
			Help:      "Total number of failed result log appends",
		}),
		HTTPRequests: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mindscreen",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by path, method and status",
			},
			[]string{"path", "method", "status"},
		),
		HTTPRequestDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mindscreen",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
}

// Handler serves the scrape endpoint for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for the HTTP middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps a handler with request counting and latency tracking.
func (m *Manager) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequests.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
	})
}

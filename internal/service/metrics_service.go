package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API:
// HTTP traffic, gradebook parsing, grade calculation and export volume.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	parseDuration   prometheus.Observer
	calcDuration    prometheus.Observer
	studentsGraded  prometheus.Counter
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	exportsTotal    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	parseDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradebook_parse_duration_seconds",
		Help:    "Time spent parsing uploaded gradebooks",
		Buckets: prometheus.DefBuckets,
	})

	calcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grade_calculation_duration_seconds",
		Help:    "Time spent computing grade reports",
		Buckets: prometheus.DefBuckets,
	})

	studentsGraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "students_graded_total",
		Help: "Total student rows scored across calculations",
	})

	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Total gradebook sessions created",
	})

	sessionsExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_expired_total",
		Help: "Total gradebook sessions evicted by TTL",
	})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_exports_total",
		Help: "Total grade report exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, parseDuration, calcDuration, studentsGraded, sessionsCreated, sessionsExpired, exportsTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		parseDuration:   parseDuration,
		calcDuration:    calcDuration,
		studentsGraded:  studentsGraded,
		sessionsCreated: sessionsCreated,
		sessionsExpired: sessionsExpired,
		exportsTotal:    exportsTotal,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveParse records one gradebook parse.
func (m *MetricsService) ObserveParse(duration time.Duration) {
	if m == nil {
		return
	}
	m.parseDuration.Observe(duration.Seconds())
	m.sessionsCreated.Inc()
}

// ObserveCalculation records one grade computation over n students.
func (m *MetricsService) ObserveCalculation(students int, duration time.Duration) {
	if m == nil {
		return
	}
	m.calcDuration.Observe(duration.Seconds())
	m.studentsGraded.Add(float64(students))
}

// RecordExport counts a rendered export by format.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}

// RecordExpiredSessions counts TTL evictions.
func (m *MetricsService) RecordExpiredSessions(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sessionsExpired.Add(float64(count))
}

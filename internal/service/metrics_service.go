package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService
// is valid and records nothing.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	mutationDuration  *prometheus.HistogramVec
	submissions       *prometheus.CounterVec
	statusChanges     *prometheus.CounterVec
	notifyFailures    *prometheus.CounterVec
	sessionsEstablish *prometheus.CounterVec
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

	mutationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_mutation_duration_seconds",
		Help:    "Duration of serialized store mutations, queue wait included",
		Buckets: prometheus.DefBuckets,
	}, []string{"mutation", "outcome"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_submitted_total",
		Help: "Complaints submitted by classified category and priority",
	}, []string{"category", "priority"})

	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_status_changes_total",
		Help: "Staff status transitions by target status",
	}, []string{"status"})

	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_notifications_failed_total",
		Help: "Department notifications that could not be published",
	}, []string{"event"})

	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sessions_established_total",
		Help: "Sessions established by role and source",
	}, []string{"role", "source"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, mutationDuration, submissions, statusChanges, notifyFailures, sessions, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		mutationDuration:  mutationDuration,
		submissions:       submissions,
		statusChanges:     statusChanges,
		notifyFailures:    notifyFailures,
		sessionsEstablish: sessions,
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

// ObserveMutation records how long a serialized store mutation took.
func (m *MetricsService) ObserveMutation(mutation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutationDuration.WithLabelValues(mutation, outcome).Observe(duration.Seconds())
}

// RecordSubmission counts a stored complaint.
func (m *MetricsService) RecordSubmission(category, priority string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(category, priority).Inc()
}

// RecordStatusChange counts an applied transition.
func (m *MetricsService) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordNotifyFailure counts a notification that was dropped.
func (m *MetricsService) RecordNotifyFailure(event string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(event).Inc()
}

// RecordSession counts a login or registration.
func (m *MetricsService) RecordSession(role, source string) {
	if m == nil {
		return
	}
	m.sessionsEstablish.WithLabelValues(role, source).Inc()
}

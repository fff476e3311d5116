package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	authzDecisions  *prometheus.CounterVec
	auditWrites     *prometheus.CounterVec
	rateLimitDrops  *prometheus.CounterVec
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

	authzDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by outcome",
	}, []string{"decision"})

	auditWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_writes_total",
		Help: "Audit log writes by result",
	}, []string{"result"})

	rateLimitDrops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"route"})

	registry.MustRegister(requestDuration, requestTotal, authzDecisions, auditWrites, rateLimitDrops)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		authzDecisions:  authzDecisions,
		auditWrites:     auditWrites,
		rateLimitDrops:  rateLimitDrops,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records duration and count for a served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveAuthzDecision counts an allow/deny outcome.
func (s *MetricsService) ObserveAuthzDecision(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	s.authzDecisions.WithLabelValues(decision).Inc()
}

// ObserveAuditWrite counts an audit log write attempt.
func (s *MetricsService) ObserveAuditWrite(failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	s.auditWrites.WithLabelValues(result).Inc()
}

// ObserveRateLimitRejection counts a request dropped by the limiter.
func (s *MetricsService) ObserveRateLimitRejection(route string) {
	s.rateLimitDrops.WithLabelValues(route).Inc()
}

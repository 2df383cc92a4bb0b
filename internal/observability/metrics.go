// Package observability collects Prometheus metrics for the API surface
// and the quotation funnel.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and the application metric families.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	quotationsSent    prometheus.Counter
	quotationsExpired prometheus.Counter
	approvalsTotal    *prometheus.CounterVec
	paymentsCaptured  prometheus.Counter
}

// NewMetrics initialises the registry and the base metric families.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripflow_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripflow_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripflow_quotations_sent_total",
		Help: "Quotations transitioned from draft to sent.",
	})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripflow_quotations_expired_total",
		Help: "Quotations flagged past validity by the expiry scan.",
	})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripflow_approvals_total",
		Help: "Approval requests by lifecycle event.",
	}, []string{"event"})
	payments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripflow_payments_captured_total",
		Help: "Payment captures recorded against bookings.",
	})
	registry.MustRegister(requests, duration, sent, expired, approvals, payments)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		quotationsSent:    sent,
		quotationsExpired: expired,
		approvalsTotal:    approvals,
		paymentsCaptured:  payments,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// QuotationSent counts a draft-to-sent transition.
func (m *Metrics) QuotationSent() {
	if m != nil {
		m.quotationsSent.Inc()
	}
}

// QuotationExpired counts a quotation flagged by the expiry scan.
func (m *Metrics) QuotationExpired() {
	if m != nil {
		m.quotationsExpired.Inc()
	}
}

// ApprovalRequested counts a newly raised approval request.
func (m *Metrics) ApprovalRequested() {
	if m != nil {
		m.approvalsTotal.WithLabelValues("requested").Inc()
	}
}

// ApprovalDecided counts a decision. decision is "approved" or "rejected".
func (m *Metrics) ApprovalDecided(decision string) {
	if m != nil {
		m.approvalsTotal.WithLabelValues(decision).Inc()
	}
}

// PaymentCaptured counts a payment capture against a booking.
func (m *Metrics) PaymentCaptured() {
	if m != nil {
		m.paymentsCaptured.Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sngm3741/review-relay/internal/review/domain"
)

// Metrics holds the collectors for the HTTP surface and the CRM calls.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CRMCallDuration *prometheus.HistogramVec
	StepsTotal      *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		CRMCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_call_duration_seconds",
				Help:    "Duration of CRM API calls",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"step", "status"},
		),
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_submission_steps_total",
				Help: "Review submission steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.CRMCallDuration, m.StepsTotal)
	return m
}

// ObserveCRMCall records one CRM round-trip.
func (m *Metrics) ObserveCRMCall(step domain.Step, status int, elapsed time.Duration) {
	m.CRMCallDuration.WithLabelValues(string(step), strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveStep counts submission step outcomes.
func (m *Metrics) ObserveStep(outcome domain.StepOutcome) {
	label := "ok"
	if !outcome.OK {
		label = "failed"
	}
	m.StepsTotal.WithLabelValues(string(outcome.Step), label).Inc()
}

// unmatchedRoute labels requests that never reached a route (404s, preflights).
const unmatchedRoute = "unmatched"

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, path, http.StatusText(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

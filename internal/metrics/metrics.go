// Package metrics holds the Prometheus collectors for allocation edits,
// cap enforcement, projection calls and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all corpusplan metrics. A nil *Registry is valid and
// records nothing.
type Registry struct {
	reg *prometheus.Registry

	Edits              *prometheus.CounterVec
	CapClips           *prometheus.CounterVec
	ProjectionCalls    *prometheus.CounterVec
	ProjectionDuration *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	ActiveSessions     prometheus.Gauge
	SessionsExpired    prometheus.Counter
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Edits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpusplan_allocation_edits_total",
				Help: "Allocation edits applied by the rebalancer",
			},
			[]string{"country", "capped"},
		),

		CapClips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpusplan_cap_clips_total",
				Help: "Cap enforcement passes that clipped a non-zero surplus",
			},
			[]string{"pass"},
		),

		ProjectionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpusplan_projection_calls_total",
				Help: "Calls to the projection backend by result",
			},
			[]string{"result"},
		),

		ProjectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpusplan_projection_duration_seconds",
				Help:    "Projection backend round trip in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpusplan_http_requests_total",
				Help: "HTTP requests served by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpusplan_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpusplan_active_sessions",
				Help: "Sessions currently held in memory",
			},
		),

		SessionsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpusplan_sessions_expired_total",
				Help: "Sessions removed by the expiry sweep",
			},
		),
	}

	r.reg.MustRegister(
		r.Edits,
		r.CapClips,
		r.ProjectionCalls,
		r.ProjectionDuration,
		r.HTTPRequests,
		r.HTTPDuration,
		r.ActiveSessions,
		r.SessionsExpired,
	)
	return r
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// RecordEdit counts one rebalancer edit.
func (r *Registry) RecordEdit(country string, capped bool) {
	if r == nil {
		return
	}
	r.Edits.WithLabelValues(country, strconv.FormatBool(capped)).Inc()
}

// RecordClip counts a cap pass that moved surplus into the absorber.
// pass names the caller: "first", "final", "legalize" or "api".
func (r *Registry) RecordClip(pass string) {
	if r == nil {
		return
	}
	r.CapClips.WithLabelValues(pass).Inc()
}

// RecordProjection records one projection call outcome and its latency.
func (r *Registry) RecordProjection(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.ProjectionCalls.WithLabelValues(result).Inc()
	r.ProjectionDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordHTTP records one served request.
func (r *Registry) RecordHTTP(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// SetActiveSessions publishes the live session count.
func (r *Registry) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.ActiveSessions.Set(float64(n))
}

// RecordExpired counts sessions dropped by a sweep.
func (r *Registry) RecordExpired(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.SessionsExpired.Add(float64(n))
}

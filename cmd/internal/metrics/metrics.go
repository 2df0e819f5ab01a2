// Package metrics exposes process counters on a private Prometheus registry.
//
// Recorder satisfies the observer hooks of the password and session packages, so domain
// code never imports Prometheus directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authcore"

// Recorder owns the registry and every collector the service reports.
type Recorder struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	secretOps    *prometheus.HistogramVec
	sessions     *prometheus.CounterVec
}

// New builds a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		// bcrypt at production cost sits around a second; keep buckets wide.
		secretOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "password",
			Name:      "operation_duration_seconds",
			Help:      "Secret derivation latency by operation (hash, verify).",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2, 4},
		}, []string{"op"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session lifecycle events (issued, renewed, revoked, rejected).",
		}, []string{"event"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.secretOps,
		r.sessions,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveHTTP records one finished request. route is the matched pattern, not the raw path.
func (r *Recorder) ObserveHTTP(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveSecret implements password.Observer.
func (r *Recorder) ObserveSecret(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.secretOps.WithLabelValues(op).Observe(d.Seconds())
}

// SessionEvent implements session.Observer.
func (r *Recorder) SessionEvent(event string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(event).Inc()
}

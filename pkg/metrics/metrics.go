package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks outbound API calls, normalizer data-quality warnings and
// session transitions. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	warnings    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	demoResults prometheus.Counter
}

// NewRecorder creates a recorder on its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seostrategy",
			Name:      "api_requests_total",
			Help:      "Outbound API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seostrategy",
			Name:      "api_request_duration_seconds",
			Help:      "Outbound API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seostrategy",
			Name:      "normalizer_missing_sections_total",
			Help:      "Analysis sections that were absent from a backend payload.",
		}, []string{"section"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seostrategy",
			Name:      "session_transitions_total",
			Help:      "Session state transitions by target state.",
		}, []string{"state"}),
		demoResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seostrategy",
			Name:      "analysis_demo_results_total",
			Help:      "Analyses served from the demo dataset because the backend was unreachable.",
		}),
	}
	r.registry.MustRegister(r.requests, r.latency, r.warnings, r.transitions, r.demoResults)
	return r
}

// Outcome buckets a response for the outcome label.
func Outcome(status int, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case err != nil:
		return "network_error"
	case status >= 200 && status < 300:
		return "success"
	case status == 401:
		return "unauthorized"
	case status >= 400 && status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}

// ObserveRequest records one completed request.
func (r *Recorder) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint, outcome).Inc()
	r.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// MissingSection records an absent analysis section.
func (r *Recorder) MissingSection(section string) {
	if r == nil {
		return
	}
	r.warnings.WithLabelValues(section).Inc()
}

// SessionTransition records a move to the given session state.
func (r *Recorder) SessionTransition(state string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(state).Inc()
}

// DemoResult records an analysis served from demo data.
func (r *Recorder) DemoResult() {
	if r == nil {
		return
	}
	r.demoResults.Inc()
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile dumps the current metrics in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}

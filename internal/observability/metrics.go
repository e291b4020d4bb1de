package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	gatekeeperDecisions   *prometheus.CounterVec
	resumeIntakeTotal     *prometheus.CounterVec
	resumeIntakeSeconds   *prometheus.HistogramVec
	assessmentEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcc_pulse_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gcc_pulse_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 60.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcc_pulse_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gatekeeperDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcc_pulse_gatekeeper_decisions_total",
			Help: "Page access decisions by outcome.",
		}, []string{"outcome"})

		resumeIntakeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcc_pulse_resume_intake_total",
			Help: "Resume analyses by mode and outcome.",
		}, []string{"mode", "outcome"})

		resumeIntakeSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gcc_pulse_resume_intake_duration_seconds",
			Help:    "Duration of resume analyses.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode"})

		assessmentEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcc_pulse_assessment_events_total",
			Help: "Assessment lifecycle events by stage and outcome.",
		}, []string{"stage", "outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gatekeeperDecisions,
			resumeIntakeTotal,
			resumeIntakeSeconds,
			assessmentEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GatekeeperDecisions counts allow and redirect outcomes for page routes.
func GatekeeperDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return gatekeeperDecisions
}

// ResumeIntake counts resume analyses.
func ResumeIntake() *prometheus.CounterVec {
	RegisterMetrics()
	return resumeIntakeTotal
}

// ResumeIntakeDuration observes how long resume analyses take.
func ResumeIntakeDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return resumeIntakeSeconds
}

// AssessmentEvents counts generate, submit and evaluate outcomes.
func AssessmentEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentEventsTotal
}

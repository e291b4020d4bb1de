package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gcc_pulse",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of generative model requests",
	}, []string{"provider", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gcc_pulse",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of failed generative model requests",
	}, []string{"provider", "model"})
)

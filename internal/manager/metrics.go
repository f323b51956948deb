package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gojags",
			Subsystem: "manager",
			Name:      "sessions_active",
			Help:      "Live model sessions",
		},
	)

	sessionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gojags",
			Subsystem: "manager",
			Name:      "sessions_created_total",
			Help:      "Session creation attempts by result",
		},
		[]string{"result"},
	)

	iterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gojags",
			Subsystem: "manager",
			Name:      "iterations_total",
			Help:      "MCMC iterations run across all sessions",
		},
	)

	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gojags",
			Subsystem: "manager",
			Name:      "operation_duration_seconds",
			Help:      "Duration of session operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(sessionsActive, sessionsCreatedTotal, iterationsTotal, opDuration)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

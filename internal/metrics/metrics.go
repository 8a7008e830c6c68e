// Package metrics exposes Prometheus instruments for parsing, quiz sessions
// and backend calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SheetsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exceltoquiz_sheets_parsed_total",
			Help: "Uploaded spreadsheets by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exceltoquiz_sessions_started_total",
			Help: "Quiz sessions that left the not-started state",
		},
	)

	SessionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exceltoquiz_sessions_finished_total",
			Help: "Finished quiz sessions by trigger",
		},
		[]string{"trigger"},
	)

	SubmissionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exceltoquiz_result_submission_failures_total",
			Help: "Results that could not be delivered to the backend",
		},
	)

	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exceltoquiz_backend_request_duration_seconds",
			Help:    "Latency of backend function calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function", "outcome"},
	)
)

// ObserveBackend records the latency of one backend call.
func ObserveBackend(function string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BackendDuration.WithLabelValues(function, outcome).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcome labels.
const (
	OutcomeCorrect     = "correct"
	OutcomeIncorrect   = "incorrect"
	OutcomeDuplicate   = "duplicate"
	OutcomeRateLimited = "rate_limited"
	OutcomePrereq      = "prereq"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadofclues_submissions_total",
		Help: "Clue submission attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	xpAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadofclues_xp_awarded_total",
		Help: "Total XP granted across all users.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadofclues_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// ObserveSubmission counts one submission attempt.
func ObserveSubmission(kind, outcome string) {
	submissions.WithLabelValues(kind, outcome).Inc()
}

// AddXPAwarded adds a grant to the XP counter.
func AddXPAwarded(xp int64) {
	xpAwarded.Add(float64(xp))
}

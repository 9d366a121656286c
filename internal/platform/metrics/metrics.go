package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coding_documenty_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coding_documenty_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	QuestionMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coding_documenty_question_mutations_total",
		Help: "Questions created, updated, deleted or imported.",
	}, []string{"op"})

	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coding_documenty_auth_events_total",
		Help: "Authentication outcomes.",
	}, []string{"event"})

	ResetTokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coding_documenty_reset_tokens_swept_total",
		Help: "Expired password reset tokens cleared by the sweeper.",
	})
)

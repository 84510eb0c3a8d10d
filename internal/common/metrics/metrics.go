// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ConversationTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Total conversation turns recorded, by intent category",
		},
		[]string{"category"},
	)

	SessionExpiries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_session_expiries_total",
			Help: "Total sessions found expired on access",
		},
	)

	ClarificationsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_clarifications_total",
			Help: "Total clarification responses issued, by cause",
		},
		[]string{"cause"},
	)

	EscalationsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_escalations_total",
			Help: "Total sessions escalated to a human operator",
		},
	)

	SMSSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_details_sent_total",
			Help: "Total opportunity-detail SMS messages dispatched",
		},
	)

	EscalationsNotified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_escalation_notifications_total",
			Help: "Total escalation handoffs delivered to the support desk",
		},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_rank_duration_seconds",
			Help:    "Duration of eligibility evaluation and ranking in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"opportunity_type"},
	)

	OpportunitiesReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_results_returned",
			Help:    "Number of opportunities returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"opportunity_type"},
	)
)

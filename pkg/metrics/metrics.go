package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "deckgo", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "deckgo", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PublishRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "deckgo", Name: "publish_requests_total", Help: "Publish requests by result (scheduled, rejected, failed)."},
		[]string{"result"},
	)
	TasksEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "deckgo", Name: "tasks_enqueued_total", Help: "Jobs submitted to the task queue by type."},
		[]string{"type"},
	)
	TasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "deckgo", Name: "tasks_processed_total", Help: "Jobs handled by the worker by type and terminal status."},
		[]string{"type", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PublishRequests)
	reg.MustRegister(TasksEnqueued)
	reg.MustRegister(TasksProcessed)
}

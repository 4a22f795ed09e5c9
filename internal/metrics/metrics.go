// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olo_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "olo_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)

	MiningEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olo_mining_events_total",
			Help: "Mining cycles started and claimed",
		},
		[]string{"event"},
	)
	TasksCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "olo_tasks_completed_total",
			Help: "Task verifications that ran to completion",
		},
	)
	Withdrawals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olo_withdrawals_total",
			Help: "Withdrawal requests by outcome",
		},
		[]string{"outcome"},
	)
	AdminActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olo_admin_actions_total",
			Help: "Admin console actions",
		},
		[]string{"action"},
	)
	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "olo_ws_connections",
			Help: "Open live view connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		RLRequests,
		RLBlocked,
		MiningEvents,
		TasksCompleted,
		Withdrawals,
		AdminActions,
		WSConnections,
	)
}

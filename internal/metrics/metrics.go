// Package metrics provides Prometheus metrics for the workspace API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workbridge"

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429",
		},
	)
)

// Workflow metrics
var (
	// MilestoneTransitionsTotal counts applied milestone status changes.
	MilestoneTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "milestone_transitions_total",
			Help:      "Applied milestone status changes by actor role and new status",
		},
		[]string{"role", "status"},
	)

	// DeliveryEventsTotal counts delivery submissions and review decisions.
	DeliveryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "delivery_events_total",
			Help:      "Delivery submissions and reviews by resulting status",
		},
		[]string{"status"},
	)

	// RejectedCommandsTotal counts soft-invalid commands that were dropped.
	RejectedCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "rejected_commands_total",
			Help:      "Commands dropped without mutation, by operation and reason",
		},
		[]string{"operation", "reason"},
	)

	// SystemMessagesTotal counts narration messages appended to project timelines.
	SystemMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "system_messages_total",
			Help:      "System-authored timeline messages written",
		},
	)

	// NotifyFailuresTotal counts failed workspace notifications.
	NotifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "notify_failures_total",
			Help:      "Workspace invalidation or event publish failures",
		},
	)
)

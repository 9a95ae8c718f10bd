// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "grievance_relay"

// Result label values.
const (
	ResultOK       = "ok"
	ResultFallback = "fallback"
	ResultError    = "error"
	ResultDisabled = "disabled"
)

var (
	TelegramRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "requests_total",
			Help:      "Bot API calls by method and outcome.",
		},
		[]string{"method", "result"},
	)

	TelegramLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "request_duration_seconds",
			Help:      "Bot API call latency, including rate limiter wait.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		},
		[]string{"result"},
	)

	UpdatesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "updates_total",
			Help:      "Inbound updates that advanced the cursor.",
		},
	)

	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "handled_total",
			Help:      "Inbound commands by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "submissions_total",
			Help:      "Accepted submissions by record kind and delivery strategy.",
		},
		[]string{"kind", "strategy"},
	)
)

// Package metrics defines the custom Prometheus metrics of the rostering
// gateway and CLI. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rosterweb"

// ── Upstream API metrics ─────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the rostering backend.
// Labels:
//   - method: HTTP method
//   - status: HTTP status code, or "error" when no response was received
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to the rostering backend.",
	},
	[]string{"method", "status"},
)

// UpstreamRequestDuration measures backend round-trip latency.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to the rostering backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// RetriesTotal counts retry attempts scheduled by the backoff policy.
var RetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retries_total",
		Help:      "Total number of retries after a transient failure.",
	},
)

// ── Edge guard metrics ───────────────────────────────────────────────────────

// GuardDecisionsTotal counts edge interceptor outcomes.
// Labels:
//   - decision: "allow", "login" or "unauthorized"
//   - required_role: role the path demanded
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of edge guard decisions, by outcome.",
	},
	[]string{"decision", "required_role"},
)

// ── Registration metrics ─────────────────────────────────────────────────────

// DraftSavesTotal counts debounced draft writes.
// Label:
//   - result: "ok" or "error"
var DraftSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draft_saves_total",
		Help:      "Total number of registration draft writes.",
	},
	[]string{"result"},
)

// SessionTransitionsTotal counts session state changes.
// Label:
//   - state: the state entered
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of auth session state transitions.",
	},
	[]string{"state"},
)

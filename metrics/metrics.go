// Package metrics exposes Prometheus collectors for the heartbeat worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HeartbeatLatency tracks the duration of one logical heartbeat exchange,
// retries included.
var HeartbeatLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gsdk_heartbeat_latency_seconds",
		Help:    "Heartbeat exchange latency including retries",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"server_id"},
)

// HeartbeatAttemptsTotal counts individual HTTP attempts.
var HeartbeatAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gsdk_heartbeat_attempts_total",
		Help: "Total heartbeat attempts sent to the agent",
	},
	[]string{"server_id"},
)

// HeartbeatFailuresTotal counts failed attempts by error code.
var HeartbeatFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gsdk_heartbeat_failures_total",
		Help: "Total failed heartbeat attempts",
	},
	[]string{"server_id", "reason"},
)

// SessionState tracks the lifecycle state (1 for the current state, 0 otherwise).
var SessionState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "gsdk_session_state",
		Help: "Session host state (1 for current state, 0 otherwise)",
	},
	[]string{"server_id", "state"},
)

// OperationsTotal counts operations received from the agent.
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gsdk_operations_total",
		Help: "Total operations received from the agent",
	},
	[]string{"server_id", "operation"},
)

// ConnectedPlayers tracks the size of the last reported player list.
var ConnectedPlayers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "gsdk_connected_players",
		Help: "Connected players in the last heartbeat",
	},
	[]string{"server_id"},
)

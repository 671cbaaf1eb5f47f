package metrics

// States lists every lifecycle state reported by SetSessionState.
var States = []string{
	"Invalid", "Initializing", "StandingBy", "Active", "Terminating", "Terminated", "Quarantined",
}

// Collector wraps metrics and provides helper methods with pre-filled labels.
// A nil *Collector is valid and records nothing.
type Collector struct {
	serverID string
}

// NewCollector creates a new Collector for the given session host.
func NewCollector(serverID string) *Collector {
	return &Collector{serverID: serverID}
}

// ObserveHeartbeatLatency records the duration of one exchange.
func (c *Collector) ObserveHeartbeatLatency(seconds float64) {
	if c == nil {
		return
	}
	HeartbeatLatency.WithLabelValues(c.serverID).Observe(seconds)
}

// IncAttempts increments the attempt counter.
func (c *Collector) IncAttempts() {
	if c == nil {
		return
	}
	HeartbeatAttemptsTotal.WithLabelValues(c.serverID).Inc()
}

// IncFailures increments the failure counter for reason.
func (c *Collector) IncFailures(reason string) {
	if c == nil {
		return
	}
	HeartbeatFailuresTotal.WithLabelValues(c.serverID, reason).Inc()
}

// SetSessionState sets the state gauge. Sets value to 1 for the given state, 0 for others.
func (c *Collector) SetSessionState(state string) {
	if c == nil {
		return
	}
	for _, s := range States {
		if s == state {
			SessionState.WithLabelValues(c.serverID, s).Set(1)
		} else {
			SessionState.WithLabelValues(c.serverID, s).Set(0)
		}
	}
}

// IncOperations increments the operation counter.
func (c *Collector) IncOperations(operation string) {
	if c == nil {
		return
	}
	OperationsTotal.WithLabelValues(c.serverID, operation).Inc()
}

// SetConnectedPlayers sets the connected players gauge.
func (c *Collector) SetConnectedPlayers(count int) {
	if c == nil {
		return
	}
	ConnectedPlayers.WithLabelValues(c.serverID).Set(float64(count))
}

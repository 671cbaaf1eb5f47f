package heartbeat

import (
	"encoding/json"
	"strings"
	"time"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// SessionHostStatus is the lifecycle state reported to the agent.
type SessionHostStatus string

const (
	StatusInvalid      SessionHostStatus = "Invalid"
	StatusInitializing SessionHostStatus = "Initializing"
	StatusStandingBy   SessionHostStatus = "StandingBy"
	StatusActive       SessionHostStatus = "Active"
	StatusTerminating  SessionHostStatus = "Terminating"
	StatusTerminated   SessionHostStatus = "Terminated"

	// StatusQuarantined is never entered; kept for wire compatibility.
	StatusQuarantined SessionHostStatus = "Quarantined"
)

// IsTerminal reports whether s is Terminating or Terminated.
func (s SessionHostStatus) IsTerminal() bool {
	return s == StatusTerminating || s == StatusTerminated
}

// Health is the game's self-reported health.
type Health string

const (
	Healthy   Health = "Healthy"
	Unhealthy Health = "Unhealthy"
)

// Operation is the agent's instruction carried by a heartbeat response.
type Operation string

const (
	OperationInvalid     Operation = "invalid"
	OperationContinue    Operation = "continue"
	OperationGetManifest Operation = "getmanifest"
	OperationQuarantine  Operation = "quarantine"
	OperationActive      Operation = "active"
	OperationTerminate   Operation = "terminate"
)

// operations is the complete set of accepted wire literals.
var operations = map[string]Operation{
	"invalid":     OperationInvalid,
	"continue":    OperationContinue,
	"getmanifest": OperationGetManifest,
	"quarantine":  OperationQuarantine,
	"active":      OperationActive,
	"terminate":   OperationTerminate,
}

// ParseOperation maps a wire literal to an Operation, ignoring case.
// Anything outside the accepted literals is a protocol error.
func ParseOperation(s string) (Operation, error) {
	if op, ok := operations[strings.ToLower(s)]; ok {
		return op, nil
	}
	return "", sdkerrors.Protocol("unknown operation "+s, sdkerrors.WithMetadata("operation", s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	op, err := ParseOperation(s)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// ConnectedPlayer identifies one player reported to the agent.
type ConnectedPlayer struct {
	PlayerID string `json:"playerId"`
}

// Request is the body of one heartbeat.
type Request struct {
	CurrentGameState  SessionHostStatus `json:"currentGameState"`
	CurrentGameHealth Health            `json:"currentGameHealth,omitempty"`
	CurrentPlayers    []ConnectedPlayer `json:"currentPlayers"`
}

// PlayerIDs returns the ids of the reported players, in order.
func (r *Request) PlayerIDs() []string {
	ids := make([]string, len(r.CurrentPlayers))
	for i, p := range r.CurrentPlayers {
		ids[i] = p.PlayerID
	}
	return ids
}

// SessionConfig is the session data the agent hands out on allocation.
type SessionConfig struct {
	SessionID      string            `json:"sessionId,omitempty"`
	SessionCookie  string            `json:"sessionCookie,omitempty"`
	InitialPlayers []string          `json:"initialPlayers,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MaintenanceEvent describes one planned interruption of the host.
// The SDK passes it through unchanged.
type MaintenanceEvent struct {
	EventID           string    `json:"eventId"`
	EventType         string    `json:"eventType"`
	ResourceType      string    `json:"resourceType"`
	Resources         []string  `json:"resources"`
	EventStatus       string    `json:"eventStatus"`
	NotBefore         time.Time `json:"notBefore"`
	Description       string    `json:"description"`
	EventSource       string    `json:"eventSource"`
	DurationInSeconds int       `json:"durationInSeconds"`
}

// MaintenanceSchedule is the agent's current list of maintenance events.
type MaintenanceSchedule struct {
	DocumentIncarnation string             `json:"documentIncarnation"`
	Events              []MaintenanceEvent `json:"events"`
}

// Response is the agent's reply to a heartbeat.
type Response struct {
	NextHeartbeatIntervalMs     int64                `json:"nextHeartbeatIntervalMs"`
	Operation                   Operation            `json:"operation"`
	SessionConfig               *SessionConfig       `json:"sessionConfig,omitempty"`
	NextScheduledMaintenanceUtc *time.Time           `json:"nextScheduledMaintenanceUtc,omitempty"`
	MaintenanceSchedule         *MaintenanceSchedule `json:"maintenanceSchedule,omitempty"`
}

// Validate rejects responses the worker cannot act on.
func (r *Response) Validate() error {
	if r.NextHeartbeatIntervalMs <= 0 {
		return sdkerrors.Protocol("nextHeartbeatIntervalMs must be positive")
	}
	if r.Operation == "" {
		return sdkerrors.Protocol("missing operation")
	}
	return nil
}

// Interval returns the wait before the next heartbeat.
func (r *Response) Interval() time.Duration {
	return time.Duration(r.NextHeartbeatIntervalMs) * time.Millisecond
}

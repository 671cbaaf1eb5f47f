package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vinayprograms/gsdk/bus"
	"github.com/vinayprograms/gsdk/telemetry"
)

// Event kinds published to the lifecycle mirror.
const (
	EventState       = "state"
	EventMaintenance = "maintenance"
	EventSchedule    = "schedule"
	EventFatal       = "fatal"
)

// DefaultEventPrefix is the subject prefix used when none is configured.
const DefaultEventPrefix = "gsdk"

// Event is the JSON payload mirrored to the bus.
type Event struct {
	ServerID  string    `json:"serverId"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	From  SessionHostStatus `json:"from,omitempty"`
	State SessionHostStatus `json:"state,omitempty"`

	Maintenance *time.Time           `json:"maintenance,omitempty"`
	Schedule    *MaintenanceSchedule `json:"schedule,omitempty"`
	Error       string               `json:"error,omitempty"`

	// Trace carries W3C trace context of the exchange that caused the event.
	Trace map[string]string `json:"trace,omitempty"`
}

// publish mirrors ev to the bus. Failures are logged and otherwise ignored.
func (w *Worker) publish(ctx context.Context, ev Event) {
	if w.events == nil {
		return
	}

	ev.ServerID = w.serverID
	ev.Timestamp = time.Now().UTC()

	carrier := telemetry.MapCarrier{}
	telemetry.InjectContext(ctx, carrier)
	if len(carrier) > 0 {
		ev.Trace = carrier
	}

	data, err := json.Marshal(ev)
	if err != nil {
		w.logger.Warn("event_encode_failed", map[string]interface{}{"kind": ev.Kind, "error": err.Error()})
		return
	}

	subject := bus.LifecycleSubject(w.eventPrefix, w.serverID, ev.Kind)
	if err := w.events.Publish(subject, data); err != nil {
		w.logger.Warn("event_publish_failed", map[string]interface{}{"subject": subject, "error": err.Error()})
	}
}

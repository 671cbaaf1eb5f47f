package gsdk

import (
	"github.com/vinayprograms/gsdk/bus"
	"github.com/vinayprograms/gsdk/heartbeat"
	"github.com/vinayprograms/gsdk/logging"
	"github.com/vinayprograms/gsdk/metrics"
	"github.com/vinayprograms/gsdk/shutdown"
	"github.com/vinayprograms/gsdk/telemetry"
)

// Options customizes Start. The zero value is valid.
type Options struct {
	// Logger receives SDK messages.
	// Default: a file logger in the configured log folder, else stdout
	Logger *logging.Logger

	// Transport talks to the agent.
	// Default: HTTP transport for the configured heartbeat endpoint
	Transport heartbeat.Transport

	// Retry bounds every heartbeat exchange.
	// Default: heartbeat.DefaultRetryPolicy()
	Retry heartbeat.RetryPolicy

	// Metrics records heartbeat metrics.
	// Default: a collector labelled with the server id
	Metrics *metrics.Collector

	// Tracer records heartbeat spans.
	// Default: telemetry.GetTracer()
	Tracer *telemetry.Tracer

	// Events receives lifecycle events. Nil disables mirroring.
	Events bus.Publisher

	// EventPrefix is the first subject token of lifecycle events.
	// Default: "gsdk"
	EventPrefix string

	// Shutdown is the coordinator run by the default fatal handler. The SDK
	// registers its heartbeat worker in shutdown.PhaseHeartbeat.
	// Default: a coordinator with no host handlers
	Shutdown *shutdown.Coordinator

	// OnFatal is called once when the heartbeat loop fails, after the
	// shutdown callback. It replaces the default of running Shutdown and
	// exiting with status 1.
	OnFatal func(err error)
}

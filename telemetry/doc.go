// Package telemetry traces heartbeat exchanges with OpenTelemetry.
//
// InitProvider installs an OTLP (gRPC or HTTP) tracer provider globally.
// Without it, the SDK records into a no-op tracer. Each heartbeat exchange
// becomes a "heartbeat.exchange" span; the HTTP attempts inside it are
// child spans created by otelhttp.
package telemetry

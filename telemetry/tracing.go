// OpenTelemetry tracing for heartbeat exchanges.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with heartbeat-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include player ids in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return NewNoopTracer()
	}
	return globalTracer
}

// NewTracer creates a tracer backed by the global otel provider.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// NewNoopTracer creates a tracer that records nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string, debug bool) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(name),
		debug:  debug,
	}
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Heartbeat Spans ---

// HeartbeatSpanOptions contains the outcome of one heartbeat exchange.
type HeartbeatSpanOptions struct {
	State     string
	Operation string
	Attempts  int
	Interval  time.Duration
	Players   []string // Only included if debug=true
}

// StartHeartbeatSpan starts the span covering one exchange, retries included.
func (t *Tracer) StartHeartbeatSpan(ctx context.Context, serverID, correlationID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "heartbeat.exchange", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("gsdk.server_id", serverID),
		attribute.String("gsdk.correlation_id", correlationID),
	)
	return ctx, span
}

// EndHeartbeatSpan ends a heartbeat span with attributes.
func (t *Tracer) EndHeartbeatSpan(span trace.Span, opts HeartbeatSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("heartbeat.state", opts.State),
		attribute.Int("heartbeat.attempts", opts.Attempts),
	}
	if opts.Operation != "" {
		attrs = append(attrs, attribute.String("heartbeat.operation", opts.Operation))
	}
	if opts.Interval > 0 {
		attrs = append(attrs, attribute.Int64("heartbeat.interval_ms", opts.Interval.Milliseconds()))
	}
	if t.debug && len(opts.Players) > 0 {
		attrs = append(attrs, attribute.StringSlice("heartbeat.players", opts.Players))
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

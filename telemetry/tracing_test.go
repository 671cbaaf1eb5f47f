package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(debug bool) (*Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracerFromProvider(tp, "test", debug), recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestHeartbeatSpan_Success(t *testing.T) {
	tracer, recorder := newRecordingTracer(false)

	_, span := tracer.StartHeartbeatSpan(context.Background(), "host-1", "corr-1")
	tracer.EndHeartbeatSpan(span, HeartbeatSpanOptions{
		State:     "StandingBy",
		Operation: "active",
		Attempts:  2,
		Interval:  2 * time.Second,
		Players:   []string{"p1"},
	}, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "heartbeat.exchange" {
		t.Errorf("Name = %q, want heartbeat.exchange", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("Status = %v, want Ok", s.Status().Code)
	}

	attrs := attrMap(s.Attributes())
	if attrs["gsdk.server_id"].AsString() != "host-1" {
		t.Errorf("server_id = %v", attrs["gsdk.server_id"])
	}
	if attrs["heartbeat.operation"].AsString() != "active" {
		t.Errorf("operation = %v", attrs["heartbeat.operation"])
	}
	if attrs["heartbeat.attempts"].AsInt64() != 2 {
		t.Errorf("attempts = %v", attrs["heartbeat.attempts"])
	}
	if attrs["heartbeat.interval_ms"].AsInt64() != 2000 {
		t.Errorf("interval_ms = %v", attrs["heartbeat.interval_ms"])
	}
	if _, ok := attrs["heartbeat.players"]; ok {
		t.Error("players should only be recorded in debug mode")
	}
}

func TestHeartbeatSpan_ErrorAndDebug(t *testing.T) {
	tracer, recorder := newRecordingTracer(true)

	_, span := tracer.StartHeartbeatSpan(context.Background(), "host-1", "corr-2")
	tracer.EndHeartbeatSpan(span, HeartbeatSpanOptions{
		State:    "Active",
		Attempts: 8,
		Players:  []string{"p1", "p2"},
	}, errors.New("agent unreachable"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("Status = %v, want Error", s.Status().Code)
	}
	attrs := attrMap(s.Attributes())
	if got := attrs["heartbeat.players"].AsStringSlice(); len(got) != 2 {
		t.Errorf("players = %v, want 2 entries", got)
	}
	if _, ok := attrs["heartbeat.operation"]; ok {
		t.Error("operation should be omitted when empty")
	}
}

func TestGetTracer_DefaultsToNoop(t *testing.T) {
	SetGlobalTracer(nil)
	tracer := GetTracer()
	if tracer == nil {
		t.Fatal("GetTracer() returned nil")
	}
	_, span := tracer.StartHeartbeatSpan(context.Background(), "host", "corr")
	tracer.EndHeartbeatSpan(span, HeartbeatSpanOptions{}, nil)
}

func TestMapCarrier_RoundTrip(t *testing.T) {
	tracer, _ := newRecordingTracer(false)
	prop := propagation.TraceContext{}

	ctx, span := tracer.StartSpan(context.Background(), "parent")
	defer span.End()

	carrier := MapCarrier{}
	prop.Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Fatal("expected traceparent to be injected")
	}
	if len(carrier.Keys()) == 0 {
		t.Error("Keys() should list injected fields")
	}

	extracted := prop.Extract(context.Background(), carrier)
	_, child := tracer.StartSpan(extracted, "child")
	defer child.End()
	if child.SpanContext().TraceID() != span.SpanContext().TraceID() {
		t.Error("extracted context should continue the trace")
	}
}

func TestInitProvider_Errors(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"missing endpoint", ProviderConfig{}},
		{"unknown protocol", ProviderConfig{Endpoint: "localhost:4317", Protocol: "carrier-pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InitProvider(context.Background(), tt.cfg); err == nil {
				t.Error("InitProvider() expected error")
			}
		})
	}
}

func TestInitProvider_HTTP(t *testing.T) {
	p, err := InitProvider(context.Background(), ProviderConfig{
		Endpoint: "http://localhost:4318",
		Protocol: "http",
		Insecure: true,
		Host:     HostIdentity{ServerID: "host-1", Region: "EastUs"},
		Debug:    true,
	})
	if err != nil {
		t.Fatalf("InitProvider() error = %v", err)
	}
	defer SetGlobalTracer(nil)

	if p.Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
	if !p.Tracer().Debug() {
		t.Error("Debug = false, want true from config")
	}
	if GetTracer() != p.Tracer() {
		t.Error("InitProvider should install its tracer globally")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestHostIdentityAttributes(t *testing.T) {
	attrs := attrMap(HostIdentity{
		ServerID: "host-1",
		VMID:     "vm-7",
		BuildID:  "b-3",
	}.attributes())

	want := map[string]string{
		"service.instance.id": "host-1",
		"gsdk.vm_id":          "vm-7",
		"gsdk.build_id":       "b-3",
	}
	if len(attrs) != len(want) {
		t.Errorf("attributes = %d, want %d (empty fields omitted)", len(attrs), len(want))
	}
	for k, v := range want {
		if attrs[k].AsString() != v {
			t.Errorf("%s = %q, want %q", k, attrs[k].AsString(), v)
		}
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{2.5, "AlwaysOnSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := sampler(tt.ratio).Description()
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tt.ratio, got, tt.want)
		}
	}
}

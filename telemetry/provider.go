// OTLP export of heartbeat spans.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	sdkerrors "github.com/vinayprograms/gsdk/errors"
)

// DefaultServiceName is used when the config leaves ServiceName empty.
const DefaultServiceName = "gsdk"

// HostIdentity labels every exported span with the session host it came
// from, so a fleet's traces can be split per VM, build and region.
type HostIdentity struct {
	ServerID string
	VMID     string
	TitleID  string
	BuildID  string
	Region   string
}

func (h HostIdentity) attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if h.ServerID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(h.ServerID))
	}
	add := func(key, value string) {
		if value != "" {
			attrs = append(attrs, attribute.String(key, value))
		}
	}
	add("gsdk.vm_id", h.VMID)
	add("gsdk.title_id", h.TitleID)
	add("gsdk.build_id", h.BuildID)
	add("gsdk.region", h.Region)
	return attrs
}

// ProviderConfig configures OTLP trace export.
type ProviderConfig struct {
	// ServiceName defaults to DefaultServiceName.
	ServiceName    string
	ServiceVersion string

	Host HostIdentity

	// Endpoint is the OTLP collector (e.g., "localhost:4317").
	// If empty, uses OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string

	// Protocol is "grpc" (default) or "http".
	Protocol string

	// Insecure disables TLS.
	Insecure bool

	// SampleRatio is the fraction of heartbeat traces exported. Zero or
	// anything >= 1 exports every trace.
	SampleRatio float64

	// Debug includes player ids in span attributes.
	Debug bool
}

// Provider owns the TracerProvider installed by InitProvider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer *Tracer
}

// InitProvider starts OTLP export and installs the provider globally. The
// returned Provider must be shut down to flush buffered spans.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return nil, sdkerrors.Configuration("telemetry endpoint not configured (set endpoint or OTEL_EXPORTER_OTLP_ENDPOINT)")
	}
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	exporter, err := newExporter(ctx, cfg.Protocol, endpoint, cfg.Insecure)
	if err != nil {
		return nil, err
	}

	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}, cfg.Host.attributes()...)
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer := NewTracer(serviceName, cfg.Debug)
	SetGlobalTracer(tracer)

	return &Provider{tp: tp, tracer: tracer}, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func newExporter(ctx context.Context, protocol, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch protocol {
	case "", "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return nil, sdkerrors.Configuration(fmt.Sprintf("unknown protocol: %s (use 'grpc' or 'http')", protocol))
	}

	if err != nil {
		return nil, fmt.Errorf("creating %s exporter: %w", protocol, err)
	}
	return exporter, nil
}

// Tracer returns the tracer for this provider.
func (p *Provider) Tracer() *Tracer {
	return p.tracer
}

// Shutdown flushes buffered spans and stops export.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}

package telemetry

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/sabbour/worldtime-mcp-go"
	redacted            = "***REDACTED***"
	// UnparseableURL stands in for URLs RedactURL cannot parse.
	UnparseableURL = "<unparseable URL>"
)

// secretParams are query parameters never recorded on spans.
var secretParams = []string{"key", "api_key", "apikey", "token"}

// Config configures the trace pipeline.
type Config struct {
	// Endpoint is an OTLP/HTTP URL such as http://localhost:4318. Empty disables export.
	Endpoint       string
	ServiceName    string
	ServiceVersion string
}

// Provider owns the tracer used by the tool handlers and upstream clients.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// New builds a Provider. Without an endpoint spans are dropped.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return NewWithTracerProvider(noop.NewTracerProvider()), nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &Provider{sdk: sdk, tracer: sdk.Tracer(instrumentationName)}, nil
}

// NewWithTracerProvider wraps an existing tracer provider.
func NewWithTracerProvider(tp trace.TracerProvider) *Provider {
	return &Provider{tracer: tp.Tracer(instrumentationName)}
}

// Tracer returns the tracer spans should be started from.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RedactURL masks credential query parameters so the URL can be logged or traced.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return UnparseableURL
	}
	q := u.Query()
	changed := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, redacted)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

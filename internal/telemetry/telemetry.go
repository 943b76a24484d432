// Package telemetry wires optional OpenTelemetry tracing into the
// provisioning tools. Tracing is enabled only when
// OTEL_EXPORTER_OTLP_ENDPOINT is set; otherwise the global no-op tracer
// stays in place and nothing is exported.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// EndpointEnvVar names the OTLP collector endpoint
const EndpointEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"

// ShutdownFunc flushes pending spans and stops the exporter
type ShutdownFunc func(context.Context) error

// Enabled reports whether an OTLP endpoint is configured
func Enabled() bool {
	return os.Getenv(EndpointEnvVar) != ""
}

// Init installs a tracer provider exporting to the configured endpoint.
// Without an endpoint it returns a no-op shutdown and leaves the global
// provider untouched.
func Init(ctx context.Context, serviceName, serviceVersion string) (ShutdownFunc, error) {
	endpoint := os.Getenv(EndpointEnvVar)
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newTraceExporter(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// HTTPClient returns a client whose transport records a span per request.
// With tracing disabled the spans go to the no-op provider.
func HTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
	}
}

// endpoint is the parsed form of OTEL_EXPORTER_OTLP_ENDPOINT
type endpoint struct {
	host     string
	path     string
	insecure bool
}

// parseEndpoint accepts a full URL or a bare host:port (treated as plain HTTP)
func parseEndpoint(raw string) (endpoint, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Opaque != "" {
		return endpoint{host: raw, insecure: true}, nil
	}
	if parsed.Host == "" {
		return endpoint{}, fmt.Errorf("invalid OTLP endpoint: %s", raw)
	}

	ep := endpoint{host: parsed.Host, insecure: parsed.Scheme == "http"}
	if parsed.Path != "" && parsed.Path != "/" {
		ep.path = parsed.Path
	}
	return ep, nil
}

func newTraceExporter(ctx context.Context, raw string) (*otlptrace.Exporter, error) {
	ep, err := parseEndpoint(raw)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(ep.host)}
	if ep.path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(ep.path))
	}
	if ep.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

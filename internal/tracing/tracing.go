// Package tracing wires OpenTelemetry for kinmatch: the tracer provider
// with its OTLP exporter, and the spans the search service opens around
// ranking and source calls.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted in Config.Exporter.
const (
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// DefaultServiceName is the service.name of the API server.
const DefaultServiceName = "kinmatch"

const (
	exporterDialTimeout = 10 * time.Second
	batchTimeout        = 5 * time.Second
)

var (
	ErrServiceNameRequired = errors.New("service name is required")
	ErrInvalidSamplingRate = errors.New("sampling rate must be between 0 and 1")
	ErrUnsupportedExporter = errors.New("unsupported exporter type")
)

// Config selects where spans go and how many are kept.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string // "dev" when empty
	Environment    string // deployment.environment

	// Exporter is ExporterOTLPHTTP (also when empty) or ExporterOTLPGRPC.
	Exporter string
	// Endpoint is host:port of the collector. Empty keeps the exporter's
	// own default, which honours OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string
	Insecure bool

	// SampleRatio is the share of new root traces recorded. Callers that
	// sent a sampled traceparent are always followed.
	SampleRatio float64
}

// Validate checks an enabled config. Disabled configs are always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrServiceNameRequired
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("%w, got %g", ErrInvalidSamplingRate, c.SampleRatio)
	}
	if _, ok := exporters[c.exporter()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedExporter, c.Exporter)
	}
	return nil
}

func (c Config) exporter() string {
	if c.Exporter == "" {
		return ExporterOTLPHTTP
	}
	return c.Exporter
}

// exporterFunc builds the span exporter for one Config.Exporter value.
type exporterFunc func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFunc{
	ExporterOTLPHTTP: func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	},
	ExporterOTLPGRPC: func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		var opts []otlptracegrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	},
}

// Provider owns the SDK tracer provider installed by NewProvider. A Provider
// for a disabled config holds nothing and every method is a no-op.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider validates cfg and, when tracing is enabled, installs a global
// tracer provider exporting over OTLP together with W3C trace context and
// baggage propagation.
func NewProvider(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		slog.Info("tracing disabled")
		return &Provider{}, nil
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "dev"
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := exporters[cfg.exporter()](ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.exporter(), err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("tracing initialized",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"exporter", cfg.exporter(),
		"endpoint", cfg.Endpoint,
		"sample_ratio", cfg.SampleRatio)

	return &Provider{tp: tp}, nil
}

// Sampler follows the caller's sampling decision and records ratio of the
// traces that start here.
func Sampler(ratio float64) sdktrace.Sampler {
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.tp != nil
}

// Tracer returns a named tracer of the provider, or of the global provider
// when tracing is disabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Shutdown exports buffered spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

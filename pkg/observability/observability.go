// Package observability provides OpenTelemetry traces and metrics for the
// governance daemon: counters for the proposal lifecycle and slashing, and
// a duration histogram for verification. Telemetry is optional; with no
// endpoint configured the provider is inert.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string // e.g. "localhost:4317"; empty disables telemetry
	BatchTimeout   time.Duration
}

// DefaultConfig returns daemon defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "constitutiond",
		ServiceVersion: "1.0.0",
		BatchTimeout:   5 * time.Second,
	}
}

// Provider manages trace and metric providers plus the core instruments.
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	proposalsSubmitted metric.Int64Counter
	proposalsRejected  metric.Int64Counter
	proposalsExecuted  metric.Int64Counter
	slashesExecuted    metric.Int64Counter
	revealsAccepted    metric.Int64Counter
	verifyDuration     metric.Float64Histogram
}

// New creates an observability provider. With no OTLP endpoint configured
// the provider is enabled=false and every recording call is a no-op.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "observability"),
	}

	if config.OTLPEndpoint == "" {
		p.logger.InfoContext(ctx, "telemetry disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter, sdktrace.WithBatchTimeout(config.BatchTimeout)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(p.tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(config.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(p.meterProvider)

	p.tracer = otel.Tracer("constitutiond")
	p.meter = otel.Meter("constitutiond")

	if err := p.initInstruments(); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "telemetry enabled", "endpoint", config.OTLPEndpoint)
	return p, nil
}

func (p *Provider) initInstruments() error {
	var err error
	if p.proposalsSubmitted, err = p.meter.Int64Counter("dao.proposals.submitted"); err != nil {
		return err
	}
	if p.proposalsRejected, err = p.meter.Int64Counter("dao.proposals.rejected"); err != nil {
		return err
	}
	if p.proposalsExecuted, err = p.meter.Int64Counter("dao.proposals.executed"); err != nil {
		return err
	}
	if p.slashesExecuted, err = p.meter.Int64Counter("dao.slashes.executed"); err != nil {
		return err
	}
	if p.revealsAccepted, err = p.meter.Int64Counter("dao.reveals.accepted"); err != nil {
		return err
	}
	if p.verifyDuration, err = p.meter.Float64Histogram("dao.verify.duration_ms"); err != nil {
		return err
	}
	return nil
}

// RecordSubmitted counts a submitted proposal.
func (p *Provider) RecordSubmitted(ctx context.Context) {
	if p.proposalsSubmitted != nil {
		p.proposalsSubmitted.Add(ctx, 1)
	}
}

// RecordRejected counts a terminal rejection.
func (p *Provider) RecordRejected(ctx context.Context, reason string) {
	if p.proposalsRejected != nil {
		p.proposalsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordExecuted counts an executed proposal.
func (p *Provider) RecordExecuted(ctx context.Context) {
	if p.proposalsExecuted != nil {
		p.proposalsExecuted.Add(ctx, 1)
	}
}

// RecordSlash counts a slash by type.
func (p *Provider) RecordSlash(ctx context.Context, slashType string) {
	if p.slashesExecuted != nil {
		p.slashesExecuted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", slashType)))
	}
}

// RecordReveal counts an accepted oracle reveal.
func (p *Provider) RecordReveal(ctx context.Context) {
	if p.revealsAccepted != nil {
		p.revealsAccepted.Add(ctx, 1)
	}
}

// RecordVerifyDuration records one verification's wall time.
func (p *Provider) RecordVerifyDuration(ctx context.Context, d time.Duration) {
	if p.verifyDuration != nil {
		p.verifyDuration.Record(ctx, float64(d.Milliseconds()))
	}
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

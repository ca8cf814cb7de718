// Package telemetry provides OpenTelemetry integration for partforge.
//
// Telemetry is disabled by default and then costs nothing: the returned
// providers are no-ops.
//
// # Exporters
//
//   - stdout: spans and metrics as JSON to the configured writer (default)
//   - OTLP/HTTP metrics: set OTEL_EXPORTER_OTLP_METRICS_ENDPOINT or
//     OTEL_EXPORTER_OTLP_ENDPOINT (e.g. localhost:4318)
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/vk/partforge"

// Config selects what Init builds.
type Config struct {
	Enabled     bool
	ServiceName string
	Version     string
	// Writer receives stdout-exporter output. Defaults to os.Stderr so the
	// report on stdout stays clean.
	Writer io.Writer
	// OTLPEndpoint overrides the OTEL_EXPORTER_OTLP_* environment.
	OTLPEndpoint string
}

// Telemetry owns the tracer and meter providers of one process.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	shutdownFns    []func(context.Context) error
}

// Noop returns providers that record nothing.
func Noop() *Telemetry {
	return &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
}

// Init builds the providers. When cfg.Enabled is false it returns Noop().
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "partforge"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	t := &Telemetry{}
	tp, err := buildTraceProvider(res, cfg.Writer)
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace provider: %w", err)
	}
	t.tracerProvider = tp
	t.shutdownFns = append(t.shutdownFns, tp.Shutdown)

	mp, err := buildMetricProvider(ctx, res, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry: metric provider: %w", err)
	}
	t.meterProvider = mp
	t.shutdownFns = append(t.shutdownFns, mp.Shutdown)
	return t, nil
}

func buildTraceProvider(res *resource.Resource, w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
	), nil
}

func buildMetricProvider(ctx context.Context, res *resource.Resource, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	endpoint := firstNonEmpty(
		cfg.OTLPEndpoint,
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
	if endpoint != "" {
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second)),
		))
	} else {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
		if err != nil {
			return nil, err
		}
		// Runs are short; Shutdown performs the final collection.
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second)),
		))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

// Tracer returns the partforge tracer.
func (t *Telemetry) Tracer() trace.Tracer {
	return t.tracerProvider.Tracer(instrumentationScope)
}

// Meter returns the partforge meter.
func (t *Telemetry) Meter() metric.Meter {
	return t.meterProvider.Meter(instrumentationScope)
}

// Shutdown flushes all spans and metrics and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdownFns {
		errs = append(errs, fn(ctx))
	}
	t.shutdownFns = nil
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

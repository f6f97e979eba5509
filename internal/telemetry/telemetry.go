// Package telemetry wires OpenTelemetry traces and metrics. Exporters are
// configured from the standard OTEL_* environment variables.
package telemetry

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/dgallion1/esglens"

// Instruments holds the tracer and metric instruments used by the pipeline.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	Analyses      metric.Int64Counter
	Mentions      metric.Int64Histogram
	StageDuration metric.Float64Histogram
	LLMRequests   metric.Int64Counter
}

// Init installs OTLP/HTTP trace and metric providers when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. Otherwise the global no-op providers
// stay in place. The returned shutdown function flushes exporters.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		inst, err := New()
		return inst, noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	inst, err := New()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return inst, shutdown, nil
}

// New builds instruments from the current global providers.
func New() (*Instruments, error) {
	tracer := otel.Tracer(scopeName)
	meter := otel.Meter(scopeName)

	analyses, err := meter.Int64Counter("esglens.analyses",
		metric.WithDescription("Documents analysed, by strategy and outcome"),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, err
	}

	mentions, err := meter.Int64Histogram("esglens.mentions",
		metric.WithDescription("Initiative mentions per analysed document"),
		metric.WithUnit("{mention}"))
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram("esglens.stage.duration",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	llmRequests, err := meter.Int64Counter("esglens.llm.requests",
		metric.WithDescription("Language model calls, by purpose"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:        tracer,
		Meter:         meter,
		Analyses:      analyses,
		Mentions:      mentions,
		StageDuration: stageDuration,
		LLMRequests:   llmRequests,
	}, nil
}

// Package telemetry wires OpenTelemetry tracing behind a small helper surface
// so engine code can open spans without touching the SDK directly. Tracing is
// off unless Init installs a provider; spans are no-ops until then.
package telemetry

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"shepherd/internal/config"
)

const tracerName = "shepherd"

var (
	providerOnce sync.Once
	providerErr  error
)

// Init installs the stdout span exporter when telemetry is enabled. The first
// successful initialisation wins; later calls are no-ops.
func Init(cfg *config.Config) error {
	if cfg == nil || !cfg.Telemetry.Enabled {
		return nil
	}

	var w io.Writer = os.Stdout
	if cfg.Telemetry.OutputFile != "" {
		f, err := os.Create(cfg.Telemetry.OutputFile)
		if err != nil {
			return err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return installProvider(exporter)
}

func installProvider(exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}

	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", "shepherd"),
			),
		)
		if err != nil {
			providerErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
	})

	return providerErr
}

// StartSpan opens a span on the global tracer.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

// EndSpan records the outcome on the span and closes it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

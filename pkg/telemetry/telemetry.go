// Package telemetry configura el TracerProvider de OpenTelemetry de la aplicación.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/taller-api/pkg/config"
)

// TracerName nombre del tracer usado por los casos de uso.
const TracerName = "github.com/jhoicas/taller-api"

// ShutdownFunc libera el exportador y vacía los spans pendientes.
type ShutdownFunc func(context.Context) error

// Setup instala el TracerProvider global según cfg.Telemetry.Exporter.
// Con "none" se deja el provider no-op de otel y Shutdown no hace nada.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	exporter, err := newExporter(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return func(context.Context) error { return nil }, nil
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.App.Name),
			attribute.String("service.environment", cfg.App.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", "none":
		return nil, nil
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporterCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return otlptracegrpc.New(exporterCtx, opts...)
	default:
		return nil, fmt.Errorf("telemetry: exportador no soportado: %s", cfg.Exporter)
	}
}

// Tracer devuelve el tracer de la aplicación desde el provider global.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

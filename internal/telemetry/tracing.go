// Package telemetry wires tracing and metrics the way the teacher's
// internal/observability/tracing package does, generalized to take its
// endpoint and sampling ratio from config rather than hardcoding them.
package telemetry

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	apitrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracingOptions configures InitTracing.
type TracingOptions struct {
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

// InitTracing installs a global TracerProvider with an OTLP/HTTP exporter
// and returns a shutdown func. Callers that leave Tracing.Enabled=false in
// config should not call this at all; it always installs a real exporter.
func InitTracing(ctx context.Context, log *zap.Logger, opts TracingOptions) (func(context.Context) error, error) {
	endpoint := opts.OTLPEndpoint
	if endpoint == "" {
		endpoint = "http://localhost:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint+"/v1/traces"))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			attribute.String("deployment.environment", os.Getenv("DEPLOY_ENV")),
		),
	)
	if err != nil {
		return nil, err
	}
	ratio := opts.SampleRatio
	if ratio <= 0 {
		ratio = 0.2
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exp, sdktrace.WithMaxExportBatchSize(512), sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	log.Info("tracing initialized", zap.String("service", opts.ServiceName), zap.String("exporter", endpoint))
	return tp.Shutdown, nil
}

// Tracer returns the module's named tracer.
func Tracer() apitrace.Tracer {
	return otel.Tracer("docqa-engine")
}

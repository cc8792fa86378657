// Package telemetry wires OpenTelemetry tracing and Prometheus metrics
// across Write/Read/Reconcile hops. Tracing is opt-in: with no OTLP
// endpoint configured the tracer provider is the SDK's default no-op and
// StartSpanWithTracer is a no-op too, costing nothing on the hot path.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InitTracerProvider returns a TracerProvider exporting spans to endpoint
// over OTLP/gRPC. If endpoint is empty, tracing is a no-op: callers still get
// a TracerProvider, but StartSpanWithTracer will skip span creation because
// there is never a valid parent span context to attach to.
func InitTracerProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	if endpoint == "" {
		return sdktrace.NewTracerProvider(), nil
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}

// StartSpanWithTracer starts a child span named name using tracer, but only
// when ctx already carries a valid parent span context — this module never
// originates root traces, it only extends ones the RPC layer propagated in.
// With no parent, it returns ctx unchanged, a no-op span, and a no-op
// end function.
func StartSpanWithTracer(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span, func(error)) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx), func(error) {}
	}
	spanCtx, span := tracer.Start(ctx, name)
	return spanCtx, span, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/CoopHive/bacalhau/pkg/version"
)

// GetTracer returns the tracer for this module from the global provider.
func GetTracer() oteltrace.Tracer {
	return otel.GetTracerProvider().Tracer(version.TracerName())
}

// GetMeter returns the meter for this module from the global provider.
func GetMeter() metric.Meter {
	return otel.GetMeterProvider().Meter(version.TracerName())
}

// NewSpan starts a span named after the calling component.
func NewSpan(ctx context.Context, t oteltrace.Tracer, name string, opts ...oteltrace.SpanStartOption) (context.Context, oteltrace.Span) {
	return t.Start(ctx, name, opts...)
}

// WithJobID tags a span with the job it is about.
func WithJobID(jobID string) oteltrace.SpanStartOption {
	return oteltrace.WithAttributes(attribute.String(AttributeJobID, jobID))
}

// RecordErrorOnSpan records the error returned by the function on the given span. Should be used with a deferred
// span.End() in the calling function.
func RecordErrorOnSpan(span oteltrace.Span) func(error) error {
	return func(err error) error {
		recordError(span, err)
		return err
	}
}

// RecordErrorOnSpanTwo is RecordErrorOnSpan for functions returning a value
// and an error.
func RecordErrorOnSpanTwo[T any](span oteltrace.Span) func(T, error) (T, error) {
	return func(t T, err error) (T, error) {
		recordError(span, err)
		return t, err
	}
}

func recordError(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

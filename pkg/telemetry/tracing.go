package telemetry

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var traceProvider *sdktrace.TracerProvider

func setupTraceProvider(ctx context.Context) {
	if !tracesSignal.enabled() {
		log.Debug().Msg("no OTLP traces endpoint configured, spans stay local")
		return
	}

	client, err := traceClient(tracesSignal.protocol())
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize OTLP trace client")
		return
	}
	// ctx only governs the initial connection to the collector
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize OTLP trace exporter")
		return
	}

	traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource()),
	)
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func traceClient(protocol string) (otlptrace.Client, error) {
	switch protocol {
	case otlpProtocolHTTP:
		return otlptracehttp.NewClient(), nil
	case otlpProtocolGrpc:
		return otlptracegrpc.NewClient(), nil
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q for %s", protocol, tracesSignal.name)
	}
}

func shutdownTraceProvider(ctx context.Context) error {
	if traceProvider == nil {
		return nil
	}
	provider := traceProvider
	traceProvider = nil
	return errors.Wrap(provider.Shutdown(ctx), "shutting down trace provider")
}

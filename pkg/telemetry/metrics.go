package telemetry

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"
)

var meterProvider *sdkmetric.MeterProvider

func setupMeterProvider(ctx context.Context) {
	if !metricsSignal.enabled() {
		log.Debug().Msg("no OTLP metrics endpoint configured, metrics are not exported")
		return
	}

	exporter, err := metricExporter(ctx, metricsSignal.protocol())
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize OTLP metric exporter")
		return
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(newResource()),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(meterProvider)
}

func metricExporter(ctx context.Context, protocol string) (sdkmetric.Exporter, error) {
	switch protocol {
	case otlpProtocolHTTP:
		return otlpmetrichttp.New(ctx)
	case otlpProtocolGrpc:
		return otlpmetricgrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q for %s", protocol, metricsSignal.name)
	}
}

// shutdownMeterProvider exports pending measurements before shutting down.
func shutdownMeterProvider(ctx context.Context) error {
	if meterProvider == nil {
		return nil
	}
	provider := meterProvider
	meterProvider = nil
	return errors.Wrap(multierr.Combine(
		provider.ForceFlush(ctx),
		provider.Shutdown(ctx),
	), "shutting down meter provider")
}

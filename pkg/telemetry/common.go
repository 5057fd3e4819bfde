package telemetry

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/multierr"

	"github.com/CoopHive/bacalhau/pkg/version"
)

const partialSuccessNoise = "OTLP partial success: empty message (0 spans rejected)"

// signal is one kind of telemetry exported over OTLP.
type signal struct {
	name        string
	endpointEnv string
	protocolEnv string
}

var (
	tracesSignal  = signal{name: "traces", endpointEnv: otlpTracesEndpoint, protocolEnv: otlpTracesProtocol}
	metricsSignal = signal{name: "metrics", endpointEnv: otlpMetricsEndpoint, protocolEnv: otlpMetricsProtocol}
)

// enabled reports whether an OTLP endpoint is configured for s and the SDK
// has not been switched off.
func (s signal) enabled() bool {
	if strings.EqualFold(os.Getenv(disableTracing), "true") {
		return false
	}
	_, shared := os.LookupEnv(otlpEndpoint)
	_, own := os.LookupEnv(s.endpointEnv)
	return shared || own
}

// protocol resolves the OTLP protocol for s, the signal specific variable
// taking precedence over the shared one.
func (s signal) protocol() string {
	if v := os.Getenv(s.protocolEnv); v != "" {
		return v
	}
	if v := os.Getenv(otlpProtocol); v != "" {
		return v
	}
	return otlpProtocolHTTP
}

// SetupFromEnvs installs the global trace and meter providers when the
// standard OTEL_EXPORTER_OTLP_* variables point at a collector. Without them
// the otel no-op providers stay in place.
func SetupFromEnvs() {
	ctx := context.Background()
	setupTraceProvider(ctx)
	setupMeterProvider(ctx)

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		if err.Error() == partialSuccessNoise {
			return
		}
		log.Err(err).Msg("Error occurred while exporting telemetry")
	}))
}

// Cleanup flushes buffered spans and metrics and shuts the providers down.
func Cleanup() error {
	ctx := context.Background()
	return multierr.Combine(
		shutdownTraceProvider(ctx),
		shutdownMeterProvider(ctx),
	)
}

func newResource() *resource.Resource {
	res, err := resource.Merge(
		resource.Environment(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("jobview"),
			semconv.ServiceVersionKey.String(version.GITVERSION),
		),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create otel resource. Falling back to default resource config")
		res = resource.Default()
	}
	return res
}

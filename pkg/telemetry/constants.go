package telemetry

// Standard OpenTelemetry exporter environment variables.
const (
	otlpEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otlpTracesEndpoint  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	otlpMetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"

	otlpProtocol        = "OTEL_EXPORTER_OTLP_PROTOCOL"
	otlpTracesProtocol  = "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"
	otlpMetricsProtocol = "OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"

	otlpProtocolGrpc = "grpc"
	otlpProtocolHTTP = "http/protobuf"

	disableTracing = "OTEL_SDK_DISABLED"

	// Attribute names attached to spans and metrics.
	AttributeJobID          = "jobview.job_id"
	AttributeRequestID      = "jobview.request_id"
	AttributeModerationType = "jobview.moderation_type"
	AttributeResource       = "jobview.resource"
	AttributeOutcome        = "jobview.outcome"
)

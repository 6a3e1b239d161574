package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	RunCount           metric.Int64Counter
	StageDuration      metric.Float64Histogram
	StageFailureCount  metric.Int64Counter
	SuppressedCount    metric.Int64Counter
	FacilitiesReturned metric.Int64Histogram
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/maitricare/emergency-locator")

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	runCount, err := meter.Int64Counter(
		"locator.run.count",
		metric.WithDescription("Number of locator runs started"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"locator.stage.duration",
		metric.WithDescription("Locator stage duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageFailureCount, err := meter.Int64Counter(
		"locator.stage.failure.count",
		metric.WithDescription("Number of locator stage failures by stage and kind"),
	)
	if err != nil {
		return nil, err
	}

	suppressedCount, err := meter.Int64Counter(
		"locator.callback.suppressed.count",
		metric.WithDescription("Number of stale run callbacks discarded"),
	)
	if err != nil {
		return nil, err
	}

	facilitiesReturned, err := meter.Int64Histogram(
		"locator.facilities.returned",
		metric.WithDescription("Number of facilities surfaced per successful run"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
		RunCount:           runCount,
		StageDuration:      stageDuration,
		StageFailureCount:  stageFailureCount,
		SuppressedCount:    suppressedCount,
		FacilitiesReturned: facilitiesReturned,
	}, nil
}

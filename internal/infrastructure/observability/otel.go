package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/productar"

// Metrics holds all application metrics
type Metrics struct {
	CatalogLoads           metric.Int64Counter
	CatalogFallbacks       metric.Int64Counter
	Classifications        metric.Int64Counter
	InferenceDuration      metric.Float64Histogram
	RecognitionTransitions metric.Int64Counter
	TelemetrySent          metric.Int64Counter
	TelemetryDropped       metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics and runtime instrumentation
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

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(15 * time.Second)); err != nil {
		GetLogger().Warn().Err(err).Msg("runtime instrumentation unavailable")
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	catalogLoads, err := meter.Int64Counter(
		"catalog.load.count",
		metric.WithDescription("Number of successful catalog loads by source"),
	)
	if err != nil {
		return nil, err
	}

	catalogFallbacks, err := meter.Int64Counter(
		"catalog.fallback.count",
		metric.WithDescription("Number of loads served by the secondary backend"),
	)
	if err != nil {
		return nil, err
	}

	classifications, err := meter.Int64Counter(
		"classifier.classification.count",
		metric.WithDescription("Number of classifications by outcome"),
	)
	if err != nil {
		return nil, err
	}

	inferenceDuration, err := meter.Float64Histogram(
		"classifier.inference.duration",
		metric.WithDescription("Single-frame inference duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"recognition.transition.count",
		metric.WithDescription("Recognition state transitions by target state"),
	)
	if err != nil {
		return nil, err
	}

	sent, err := meter.Int64Counter(
		"telemetry.events.sent",
		metric.WithDescription("Analytics events delivered to the transport"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"telemetry.events.dropped",
		metric.WithDescription("Analytics events dropped after failed delivery or queue overflow"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		CatalogLoads:           catalogLoads,
		CatalogFallbacks:       catalogFallbacks,
		Classifications:        classifications,
		InferenceDuration:      inferenceDuration,
		RecognitionTransitions: transitions,
		TelemetrySent:          sent,
		TelemetryDropped:       dropped,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordCatalogLoad records a successful load and whether it came from a fallback
func RecordCatalogLoad(ctx context.Context, metrics *Metrics, source string, fallback bool) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("catalog.source", source))
	metrics.CatalogLoads.Add(ctx, 1, attrs)
	if fallback {
		metrics.CatalogFallbacks.Add(ctx, 1, attrs)
	}
}

// RecordClassification records one classification outcome and its inference time
func RecordClassification(ctx context.Context, metrics *Metrics, outcome string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.Classifications.Add(ctx, 1, metric.WithAttributes(attribute.String("classification.outcome", outcome)))
	metrics.InferenceDuration.Record(ctx, float64(duration.Microseconds())/1000.0)
}

// RecordTransition records a recognition state change
func RecordTransition(ctx context.Context, metrics *Metrics, targetIndex int, state string) {
	if metrics == nil {
		return
	}
	metrics.RecognitionTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("target.index", targetIndex),
		attribute.String("recognition.state", state),
	))
}

// RecordTelemetry records delivered and dropped analytics event counts
func RecordTelemetry(ctx context.Context, metrics *Metrics, sent, dropped int) {
	if metrics == nil {
		return
	}
	if sent > 0 {
		metrics.TelemetrySent.Add(ctx, int64(sent))
	}
	if dropped > 0 {
		metrics.TelemetryDropped.Add(ctx, int64(dropped))
	}
}

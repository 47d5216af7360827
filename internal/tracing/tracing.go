package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "movies-api"

var tracer trace.Tracer

// Init installs a tracer provider exporting over OTLP/HTTP and returns its shutdown func.
// With tracing disabled the global no-op provider stays in place.
func Init(cfg *config.ObservabilityConfig, environment string, logger *logrus.Logger) (func(context.Context) error, error) {
	if !cfg.TracingEnabled {
		logger.Info("Tracing is disabled")
		return func(context.Context) error { return nil }, nil
	}

	ctx := context.Background()

	opts, host, err := exporterOptions(cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(instrumentationName),
			semconv.ServiceVersionKey.String(config.Version()),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := newTracerProvider(exporter, res, cfg.SampleRate)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = tp.Tracer(instrumentationName)

	logger.WithFields(logrus.Fields{
		"otlp_endpoint": host,
		"sample_rate":   cfg.SampleRate,
	}).Info("OpenTelemetry tracing initialized")

	return tp.Shutdown, nil
}

// exporterOptions turns OBSERVABILITY_OTLP_ENDPOINT into exporter options.
// https endpoints keep TLS; a bare host:port or http URL is sent in plain text.
func exporterOptions(endpoint string) ([]otlptracehttp.Option, string, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, "", fmt.Errorf("invalid otlp endpoint %q", endpoint)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	switch u.Scheme {
	case "https":
	case "http":
		opts = append(opts, otlptracehttp.WithInsecure())
	default:
		return nil, "", fmt.Errorf("unsupported otlp endpoint scheme %q", u.Scheme)
	}
	if path := strings.TrimSuffix(u.Path, "/"); path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(path))
	}
	return opts, u.Host, nil
}

// Child spans follow the caller's sampling decision; roots are sampled at rate.
func newTracerProvider(exporter sdktrace.SpanExporter, res *resource.Resource, rate float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
}

func getTracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return getTracer().Start(ctx, name, opts...)
}

// AddSpanAttributes sets the supported values on span; durations are recorded in milliseconds.
// Values of other types are dropped.
func AddSpanAttributes(span trace.Span, attrs map[string]interface{}) {
	if span == nil {
		return
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case int64:
			kvs = append(kvs, attribute.Int64(k, val))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		case time.Duration:
			kvs = append(kvs, attribute.Int64(k, val.Milliseconds()))
		case []string:
			kvs = append(kvs, attribute.StringSlice(k, val))
		}
	}
	span.SetAttributes(kvs...)
}

// RecordError marks span failed. A cancelled context is shutdown, not failure:
// it is noted as an attribute and the status is left unset.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("cancelled", true))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

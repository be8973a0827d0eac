package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/promptgen-backend/internal/config"
	"github.com/yungbote/promptgen-backend/internal/platform/logger"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitOTel installs the global tracer provider and W3C propagators. With tracing
// disabled it leaves the no-op provider in place. The returned func is never nil.
//
// Spans go to the OTLP/HTTP endpoint when one is configured and to stdout
// otherwise. Exporter or resource failures are logged and tracing continues
// with whatever could be built.
func InitOTel(ctx context.Context, log *logger.Logger, env string, cfg config.OTelConfig) ShutdownFunc {
	if !cfg.Enabled {
		return noopShutdown
	}
	log = log.With("component", "otel")

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "promptgen-backend"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			attribute.String("deployment.environment", strings.TrimSpace(env)),
		),
		resource.WithHost(),
	)
	if err != nil {
		log.Warn("Trace resource incomplete", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}
	if exp, err := newExporter(ctx, cfg); err != nil {
		log.Warn("Trace exporter unavailable, spans will be dropped", "error", err)
	} else {
		opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("Tracing enabled", "service", name, "endpoint", cfg.Endpoint, "sample_ratio", cfg.SampleRatio)
	return tp.Shutdown
}

func newExporter(ctx context.Context, cfg config.OTelConfig) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

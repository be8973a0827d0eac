package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

const tracerName = "github.com/yungbote/promptgen-backend"

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts an internal span. Before InitOTel runs it returns a no-op span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindInternal))
}

// EndSpan ends span, marking it failed when err is non-nil. Expected outcomes
// such as a reached question limit or a missing save are tagged with their
// dialogue error code but do not set the error status.
func EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		return
	}
	code := dialogue.CodeOf(err)
	if code != "" {
		span.SetAttributes(attribute.String("dialogue.error_code", string(code)))
	}
	switch code {
	case dialogue.CodeLimitReached, dialogue.CodeNotFound, dialogue.CodeValidation, dialogue.CodeConflict:
		span.AddEvent("rejected", trace.WithAttributes(attribute.String("reason", dialogue.Message(err))))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

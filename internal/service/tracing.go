package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Leganyst/studio-booking/internal/apperror"
	"github.com/Leganyst/studio-booking/internal/obs"
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return obs.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan помечает span ошибкой; ошибки предметной области пишутся атрибутом, а не статусом Error.
func endSpan(span trace.Span, err error) {
	if err != nil {
		if kind := apperror.KindOf(err); kind != "" {
			span.SetAttributes(attribute.String("app.error_kind", string(kind)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

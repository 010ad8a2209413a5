// Package tracing wraps span bookkeeping for service operations.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "canopy/pkg/domain-errors"
)

// Start opens a span named op on the tracer for scope.
func Start(ctx context.Context, scope, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(scope).Start(ctx, op, trace.WithAttributes(attrs...))
}

// End closes span, marking it failed for unexpected errors. Domain rejections
// (not found, not authorized, invalid input) are recorded as an attribute
// only, so error rates reflect faults rather than client mistakes.
func End(span trace.Span, err error) {
	if err != nil {
		code := dErrors.CodeOf(err)
		span.SetAttributes(attribute.String("ledger.error_kind", string(code)))
		if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

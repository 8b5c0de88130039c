package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startTransitionSpan creates a span covering one transition attempt.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan(
	ctx context.Context,
	t *Transition,
	from State,
	event *TransitionEvent,
) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.transition")
	span.SetAttributes(
		attribute.String("machine", t.machine.Name()),
		attribute.String("transition", t.name),
		attribute.String("from", string(from)),
		attribute.String("to", string(t.to)),
		attribute.String("event_id", event.ID.String()),
	)

	return ctx, span
}

// endTransitionSpan records the outcome of the attempt on span.
func endTransitionSpan(span trace.Span, result Result) {
	if result.Failure == nil {
		span.SetStatus(codes.Ok, "applied")

		return
	}

	span.RecordError(result.Failure)
	span.SetStatus(codes.Error, result.Failure.Error())
	span.SetAttributes(attribute.String("failure_kind", result.Failure.Kind.String()))
}

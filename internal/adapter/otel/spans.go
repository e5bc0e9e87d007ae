package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentput"

// StartTransitionSpan starts a span for a conversation lifecycle transition.
func StartTransitionSpan(ctx context.Context, conversationID, status string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "conversation.transition",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("conversation.status", status),
		),
	)
}

// StartAppendSpan starts a span for an event append.
func StartAppendSpan(ctx context.Context, conversationID, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "event.append",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("event.type", eventType),
		),
	)
}

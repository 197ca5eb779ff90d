package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/roomie/internal/domain"
)

// TracingPublisher wraps a domain.ChangePublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.ChangePublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.ChangePublisher.
var _ domain.ChangePublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.ChangePublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	ctx, span := p.tracer.Start(ctx, "ChangePublisher.Publish",
		trace.WithAttributes(
			attribute.String("record.kind", string(event.Kind)),
			attribute.String("change.action", string(event.Action)),
			attribute.String("record.id", event.RecordID),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event)
	if err != nil {
		recordError(span, err)
	}
	return err
}

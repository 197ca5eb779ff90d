package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/roomie/internal/domain"
)

const tracerName = "github.com/neomorfeo/roomie/internal/adapter/otel"

// TracingRepository wraps a domain.Repository with OpenTelemetry tracing.
// Spans are named after the kind, e.g. "TenantRepository.List".
type TracingRepository[E, V any] struct {
	next   domain.Repository[E, V]
	kind   domain.Kind
	prefix string
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.Repository.
var _ domain.TenantRepository = (*TracingRepository[domain.Tenant, domain.TenantValues])(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository[E, V any](kind domain.Kind, next domain.Repository[E, V]) *TracingRepository[E, V] {
	return &TracingRepository[E, V]{
		next:   next,
		kind:   kind,
		prefix: spanPrefix(kind),
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository[E, V]) List(ctx context.Context) ([]E, error) {
	ctx, span := r.start(ctx, "List")
	defer span.End()

	items, err := r.next.List(ctx)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(items)))
	}
	return items, err
}

func (r *TracingRepository[E, V]) Create(ctx context.Context, values V, ownerID string) error {
	ctx, span := r.start(ctx, "Create", attribute.String("record.owner_id", ownerID))
	defer span.End()

	if id, ok := domain.RecordIDFrom(ctx); ok {
		span.SetAttributes(attribute.String("record.id", id))
	}

	err := r.next.Create(ctx, values, ownerID)
	if err != nil {
		recordError(span, err)
	}
	return err
}

func (r *TracingRepository[E, V]) Update(ctx context.Context, id string, values V) error {
	ctx, span := r.start(ctx, "Update", attribute.String("record.id", id))
	defer span.End()

	err := r.next.Update(ctx, id, values)
	if err != nil {
		recordError(span, err)
	}
	return err
}

func (r *TracingRepository[E, V]) Delete(ctx context.Context, id string) error {
	ctx, span := r.start(ctx, "Delete", attribute.String("record.id", id))
	defer span.End()

	err := r.next.Delete(ctx, id)
	if err != nil {
		recordError(span, err)
	}
	return err
}

func (r *TracingRepository[E, V]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("record.kind", string(r.kind)))
	return r.tracer.Start(ctx, r.prefix+"."+op, trace.WithAttributes(attrs...))
}

func spanPrefix(kind domain.Kind) string {
	switch kind {
	case domain.KindTenant:
		return "TenantRepository"
	case domain.KindRoom:
		return "RoomRepository"
	case domain.KindPayment:
		return "PaymentRepository"
	}
	return "Repository"
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

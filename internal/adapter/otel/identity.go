package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/roomie/internal/domain"
)

// TracingIdentityProvider wraps a domain.IdentityProvider with tracing.
// Passwords never reach span attributes.
type TracingIdentityProvider struct {
	next   domain.IdentityProvider
	tracer trace.Tracer
}

// Compile-time check: TracingIdentityProvider implements domain.IdentityProvider.
var _ domain.IdentityProvider = (*TracingIdentityProvider)(nil)

// NewTracingIdentityProvider creates a tracing decorator around the given provider.
func NewTracingIdentityProvider(next domain.IdentityProvider) *TracingIdentityProvider {
	return &TracingIdentityProvider{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingIdentityProvider) GetSession(ctx context.Context) (domain.Session, error) {
	ctx, span := p.tracer.Start(ctx, "IdentityProvider.GetSession")
	defer span.End()

	session, err := p.next.GetSession(ctx)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.String("session.state", string(session.State)))
	}
	return session, err
}

func (p *TracingIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error) {
	ctx, span := p.tracer.Start(ctx, "IdentityProvider.SignInWithPassword",
		trace.WithAttributes(attribute.String("user.email", email)),
	)
	defer span.End()

	session, err := p.next.SignInWithPassword(ctx, email, password)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.String("user.id", session.UserID))
	}
	return session, err
}

func (p *TracingIdentityProvider) SignOut(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "IdentityProvider.SignOut")
	defer span.End()

	err := p.next.SignOut(ctx)
	if err != nil {
		recordError(span, err)
	}
	return err
}

// OnAuthStateChange is not traced; listeners run outside any request.
func (p *TracingIdentityProvider) OnAuthStateChange(listener func(domain.Session)) domain.Unsubscribe {
	return p.next.OnAuthStateChange(listener)
}

package domain

import (
	"context"
	"time"
)

// Kind names an entity kind managed by the console.
type Kind string

const (
	KindTenant  Kind = "tenant"
	KindRoom    Kind = "room"
	KindPayment Kind = "payment"
)

// Repository is the CRUD contract for one entity kind. Implementations are
// stateless between calls: no retries, no caching.
type Repository[E, V any] interface {
	// List returns every record visible to the caller, newest first.
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, values V, ownerID string) error
	// Update overwrites only the supplied fields of values.
	Update(ctx context.Context, id string, values V) error
	Delete(ctx context.Context, id string) error
}

type (
	TenantRepository  = Repository[Tenant, TenantValues]
	RoomRepository    = Repository[Room, RoomValues]
	PaymentRepository = Repository[Payment, PaymentValues]
)

// Unsubscribe cancels a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// IdentityProvider is the remote authority for operator sessions.
type IdentityProvider interface {
	GetSession(ctx context.Context) (Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange reports session transitions that happen independently
	// of calls made through this provider (sign-out elsewhere, expiry).
	OnAuthStateChange(listener func(Session)) Unsubscribe
}

// SessionTransitionValidator checks session lifecycle transitions.
type SessionTransitionValidator interface {
	Apply(ctx context.Context, current SessionState, event SessionEvent) (SessionState, error)
}

// Router is the navigation surface of the console shell.
type Router interface {
	Current() string
	Push(path string)
	// Replace navigates without adding a back-stack entry.
	Replace(path string)
	OnChange(listener func(path string)) Unsubscribe
}

// Account is an operator who can sign in.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthSession is the identity provider's record of one sign-in.
type AuthSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session may still be used at the given time.
func (s AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// AccountStore persists operator accounts and their sessions.
type AccountStore interface {
	CreateAccount(ctx context.Context, account Account) error
	AccountByEmail(ctx context.Context, email string) (Account, error)
	CreateSession(ctx context.Context, session AuthSession) error
	SessionByID(ctx context.Context, id string) (AuthSession, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
}

// TokenClaims identifies a session inside a bearer token.
type TokenClaims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(claims TokenClaims) (string, error)
	Verify(token string) (TokenClaims, error)
}

// ChangeAction names what happened to a record.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

// ChangeEvent records a successful mutation of one record.
type ChangeEvent struct {
	Kind     Kind
	Action   ChangeAction
	RecordID string
	OwnerID  string
}

// ChangePublisher defines the contract for emitting change events.
type ChangePublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/neomorfeo/roomie/internal/domain"
)

// SessionSource is the read side of the session, injected into consumers
// that gate on it.
type SessionSource interface {
	Session() domain.Session
}

// SessionStore is the single owner of the operator session. It starts in the
// unknown state and resolves from the identity provider; every other
// component reads or watches it and never writes it.
type SessionStore struct {
	idp       domain.IdentityProvider
	validator domain.SessionTransitionValidator
	logger    *slog.Logger

	mu       sync.Mutex
	session  domain.Session
	watchers map[int]func(domain.Session)
	nextID   int
	resolved chan struct{}

	// notifyMu serializes transitions with their delivery so watchers see
	// changes in the order they were applied.
	notifyMu sync.Mutex

	subscribe   sync.Once
	unsubscribe domain.Unsubscribe
}

// NewSessionStore creates a store in the unknown state. Call Bootstrap to
// resolve it.
func NewSessionStore(idp domain.IdentityProvider, validator domain.SessionTransitionValidator, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		idp:       idp,
		validator: validator,
		logger:    logger,
		session:   domain.Session{State: domain.SessionUnknown},
		watchers:  make(map[int]func(domain.Session)),
		resolved:  make(chan struct{}),
	}
}

// Bootstrap subscribes to the identity provider and queries it for an
// existing session in the background. It returns immediately; the returned
// channel is closed once the session has resolved.
func (s *SessionStore) Bootstrap(ctx context.Context) <-chan struct{} {
	s.subscribe.Do(func() {
		unsubscribe := s.idp.OnAuthStateChange(func(session domain.Session) {
			s.apply(context.Background(), session, "provider")
		})
		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()

		go func() {
			session, err := s.idp.GetSession(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "session bootstrap failed", "error", err)
				session = domain.SignedOut()
			}
			s.resolve(ctx, session)
		}()
	})
	return s.resolved
}

// Wait blocks until the session has resolved or ctx is done.
func (s *SessionStore) Wait(ctx context.Context) error {
	select {
	case <-s.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session returns a snapshot of the current session.
func (s *SessionStore) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Resolved reports whether the session has left the unknown state.
func (s *SessionStore) Resolved() bool {
	return s.Session().Resolved()
}

// UserID returns the signed-in operator, or "" when there is none.
func (s *SessionStore) UserID() string {
	return s.Session().UserID
}

// Login exchanges credentials with the identity provider. It reports only
// success or failure; the reason is logged.
func (s *SessionStore) Login(ctx context.Context, email, password string) bool {
	session, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected", "email", email, "error", err)
		return false
	}
	if !session.IsAuthenticated() {
		s.logger.InfoContext(ctx, "login returned no session", "email", email)
		return false
	}
	s.apply(ctx, session, "login")
	return true
}

// Logout invalidates the remote session. When it returns the local session
// is unauthenticated, even if the provider could not be reached.
func (s *SessionStore) Logout(ctx context.Context) {
	if err := s.idp.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "sign out failed", "error", err)
	}
	s.apply(ctx, domain.SignedOut(), "logout")
}

// Watch registers fn for every session change and calls it once with the
// current value. fn runs on the goroutine that applied the change and must
// not call Login or Logout synchronously.
func (s *SessionStore) Watch(fn func(domain.Session)) domain.Unsubscribe {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	current := s.session
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

// Close detaches the store from the identity provider.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// resolve applies the bootstrap answer unless the session has already
// resolved; a provider event or login that got there first is newer.
func (s *SessionStore) resolve(ctx context.Context, next domain.Session) {
	s.transition(ctx, next, "bootstrap", true)
}

func (s *SessionStore) apply(ctx context.Context, next domain.Session, source string) {
	s.transition(ctx, next, source, false)
}

func (s *SessionStore) transition(ctx context.Context, next domain.Session, source string, onlyUnknown bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	current := s.session
	if onlyUnknown && current.Resolved() {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "stale session answer dropped", "source", source, "state", current.State)
		return
	}
	state, err := s.validator.Apply(ctx, current.State, next.Event())
	if err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "session transition rejected", "source", source, "error", err)
		return
	}

	updated := domain.Session{State: state, UserID: next.UserID}
	if state != domain.SessionAuthenticated {
		updated.UserID = ""
	}
	if updated == current {
		s.mu.Unlock()
		return
	}
	s.session = updated
	watchers := make([]func(domain.Session), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session changed",
		"source", source,
		"from", current.State,
		"to", updated.State,
		"user_id", updated.UserID,
	)

	for _, fn := range watchers {
		fn(updated)
	}
	// Waiters resume once watchers, such as the navigator, have reacted.
	if !current.Resolved() {
		close(s.resolved)
	}
}

package app

import (
	"sync"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Decide is the navigation rule for the shell. It returns the path to
// replace the current screen with, or false when the screen may stay.
// An unresolved session never redirects.
func Decide(session domain.Session, current string) (string, bool) {
	if !session.Resolved() {
		return "", false
	}
	onLogin := domain.NormalizePath(current) == domain.PathLogin
	switch {
	case !onLogin && !session.IsAuthenticated():
		return domain.PathLogin, true
	case onLogin && session.IsAuthenticated():
		return domain.DefaultPath, true
	}
	return "", false
}

// CanRender reports whether the screen at path may show its content for the
// given session. Nothing renders while the session is unresolved.
func CanRender(session domain.Session, path string) bool {
	if !session.Resolved() {
		return false
	}
	if domain.NormalizePath(path) == domain.PathLogin {
		return !session.IsAuthenticated()
	}
	return session.IsAuthenticated()
}

// Navigator applies Decide whenever the session or the current screen changes.
type Navigator struct {
	sessions *SessionStore
	router   domain.Router

	mu     sync.Mutex
	unsubs []domain.Unsubscribe
}

// NewNavigator binds the navigation rule to a session store and a router and
// evaluates it once immediately.
func NewNavigator(sessions *SessionStore, router domain.Router) *Navigator {
	n := &Navigator{sessions: sessions, router: router}
	n.unsubs = append(n.unsubs,
		router.OnChange(func(string) { n.evaluate() }),
		sessions.Watch(func(domain.Session) { n.evaluate() }),
	)
	return n
}

// CanRender reports whether the current screen may show its content.
func (n *Navigator) CanRender() bool {
	return CanRender(n.sessions.Session(), n.router.Current())
}

// Close stops reacting to session and navigation changes.
func (n *Navigator) Close() {
	n.mu.Lock()
	unsubs := n.unsubs
	n.unsubs = nil
	n.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

func (n *Navigator) evaluate() {
	if target, ok := Decide(n.sessions.Session(), n.router.Current()); ok {
		n.router.Replace(target)
	}
}

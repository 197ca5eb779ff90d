package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNotFound    = errors.New("record not found")
	ErrForbidden   = errors.New("not permitted")
	ErrConflict    = errors.New("record conflicts with an existing one")
	ErrInvalidForm = errors.New("form values are not valid")
)

// AuthError is returned when a credential exchange or session check fails.
// Reason is for logs only and is never shown to the operator.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthRequiredError is returned when a mutation is attempted without a
// resolved, authenticated session. It is raised before any remote call.
type AuthRequiredError struct {
	Op string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("%s requires a signed-in operator", e.Op)
}

// RepositoryError wraps any failure of a remote CRUD call.
type RepositoryError struct {
	Op   string // list, create, update, delete
	Kind Kind
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// EmailTakenError is returned when an account email is already registered.
type EmailTakenError struct {
	Email string
}

func (e *EmailTakenError) Error() string {
	return fmt.Sprintf("email %q is already registered", e.Email)
}

// TransitionError is returned when a session state transition is not allowed.
type TransitionError struct {
	Event   SessionEvent
	Current SessionState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

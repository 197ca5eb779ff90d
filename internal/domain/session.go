package domain

// SessionState represents the lifecycle state of the operator session.
type SessionState string

const (
	SessionUnknown         SessionState = "unknown"
	SessionAuthenticated   SessionState = "authenticated"
	SessionUnauthenticated SessionState = "unauthenticated"
)

// SessionEvent represents an action that moves the session between states.
type SessionEvent string

const (
	EventSignedIn  SessionEvent = "signed_in"
	EventSignedOut SessionEvent = "signed_out"
)

// Transition defines a valid state change: an event moves a session from Src to Dst.
type Transition struct {
	Event SessionEvent
	Src   SessionState
	Dst   SessionState
}

// SessionTransitions defines all valid changes in the session lifecycle.
// Nothing leads back to SessionUnknown once it has been left.
var SessionTransitions = []Transition{
	{Event: EventSignedIn, Src: SessionUnknown, Dst: SessionAuthenticated},
	{Event: EventSignedOut, Src: SessionUnknown, Dst: SessionUnauthenticated},
	{Event: EventSignedIn, Src: SessionUnauthenticated, Dst: SessionAuthenticated},
	{Event: EventSignedOut, Src: SessionAuthenticated, Dst: SessionUnauthenticated},
	{Event: EventSignedIn, Src: SessionAuthenticated, Dst: SessionAuthenticated},
	{Event: EventSignedOut, Src: SessionUnauthenticated, Dst: SessionUnauthenticated},
}

// Session is the authenticated-identity state of the current operator.
type Session struct {
	State  SessionState
	UserID string
}

// SignedIn returns a resolved session for the given user.
func SignedIn(userID string) Session {
	if userID == "" {
		return SignedOut()
	}
	return Session{State: SessionAuthenticated, UserID: userID}
}

// SignedOut returns a resolved, unauthenticated session.
func SignedOut() Session {
	return Session{State: SessionUnauthenticated}
}

// Resolved reports whether the session has left the unknown state.
func (s Session) Resolved() bool {
	return s.State != SessionUnknown && s.State != ""
}

// IsAuthenticated reports whether an operator is signed in.
func (s Session) IsAuthenticated() bool {
	return s.State == SessionAuthenticated && s.UserID != ""
}

// Event returns the lifecycle event that leads to this session.
func (s Session) Event() SessionEvent {
	if s.IsAuthenticated() {
		return EventSignedIn
	}
	return EventSignedOut
}

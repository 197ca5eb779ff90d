// Package fsm checks session lifecycle transitions with looplab/fsm.
package fsm

import (
	"context"
	"errors"
	"sync"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/roomie/internal/domain"
)

var _ domain.SessionTransitionValidator = (*Validator)(nil)

// Validator replays one event at a time on a shared machine. The machine is
// rewound to the caller's state before every event.
type Validator struct {
	mu      sync.Mutex
	machine *loopfsm.FSM
}

// New creates a validator for domain.SessionTransitions.
func New() *Validator {
	events := make([]loopfsm.EventDesc, 0, len(domain.SessionTransitions))
	for _, t := range domain.SessionTransitions {
		events = append(events, loopfsm.EventDesc{
			Name: string(t.Event),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
	}
	return &Validator{
		machine: loopfsm.NewFSM(string(domain.SessionUnknown), events, nil),
	}
}

// Apply returns the state event leads to from current. A self-transition is
// allowed and returns current; an event with no edge from current is a
// *domain.TransitionError.
func (v *Validator) Apply(ctx context.Context, current domain.SessionState, event domain.SessionEvent) (domain.SessionState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.machine.SetState(string(current))
	err := v.machine.Event(ctx, string(event))

	var noTransition loopfsm.NoTransitionError
	var invalidEvent loopfsm.InvalidEventError
	var unknownEvent loopfsm.UnknownEventError
	switch {
	case err == nil:
		return domain.SessionState(v.machine.Current()), nil
	case errors.As(err, &noTransition):
		return current, nil
	case errors.As(err, &invalidEvent), errors.As(err, &unknownEvent):
		return "", &domain.TransitionError{Event: event, Current: current}
	default:
		return "", err
	}
}

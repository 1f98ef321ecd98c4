package foodtruck

import (
	"fmt"

	"github.com/warp/foodtruck-engine/generic"
)

// InvalidStateError is returned for terminal states and states outside the
// state space. Unwraps to generic.ErrInvalidState.
type InvalidStateError struct {
	State State
	// Key names the state on its environment's calendar, e.g. "Weekend:0".
	Key    string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("invalid state %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid state %s: %s", e.State, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return generic.ErrInvalidState
}

func (e *Environment) invalidState(s State, reason string) *InvalidStateError {
	return &InvalidStateError{State: s, Key: e.StateKey(s), Reason: reason}
}

// InvalidActionError is returned for order quantities outside the action space.
// Unwraps to generic.ErrInvalidAction.
type InvalidActionError struct {
	Action Action
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %d: not in action space", e.Action)
}

func (e *InvalidActionError) Unwrap() error {
	return generic.ErrInvalidAction
}

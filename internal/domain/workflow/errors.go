package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a trigger is not configured for the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is matched by every GuardError
	ErrGuardFailed = errors.New("guard condition failed")
)

// GuardError carries the reason a guarded transition was refused
type GuardError struct {
	Trigger Trigger
	From    State
	Err     error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s from %s refused: %v", e.Trigger, e.From, e.Err)
}

func (e *GuardError) Unwrap() []error {
	return []error{ErrGuardFailed, e.Err}
}

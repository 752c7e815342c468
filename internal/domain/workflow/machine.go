package workflow

import (
	"context"
	"fmt"
)

// StateMachine tracks the current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger. It reports changed=false when the trigger
	// is ignored in the current state.
	Fire(ctx context.Context, trigger Trigger) (changed bool, err error)
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) (bool, error) {
	config, exists := m.configurations[m.currentState]
	if !exists || len(config.transitions[trigger]) == 0 {
		return false, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	var guardErr error
	for _, t := range config.transitions[trigger] {
		if t.ignored {
			return false, nil
		}
		if t.guard != nil {
			if err := t.guard(ctx); err != nil {
				guardErr = err
				continue
			}
		}
		m.currentState = t.toState
		return true, nil
	}

	return false, &GuardError{Trigger: trigger, From: m.currentState, Err: guardErr}
}

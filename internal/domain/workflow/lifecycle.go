package workflow

import "context"

// NewEntryMachine builds the daily time record lifecycle:
// pending -> approved -> archived. Approving an approved record is a no-op.
func NewEntryMachine(initial State) (StateMachine, error) {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerEdit, StatePending)
	b.Configure(StateApproved).
		Ignore(TriggerApprove).
		Permit(TriggerUnapprove, StatePending).
		Permit(TriggerArchive, StateArchived).
		Permit(TriggerEdit, StateApproved)
	b.Configure(StateArchived)
	return b.Build(initial)
}

// NewTimesheetMachine builds the pay-period lifecycle. Finalizing requires
// ready to pass; reset reopens any state to pending.
func NewTimesheetMachine(initial State, ready GuardFunc) (StateMachine, error) {
	b := NewBuilder()
	for _, s := range []State{StatePending, StateApproved} {
		b.Configure(s).
			PermitIf(TriggerFinalize, StateFinalized, ready).
			Permit(TriggerEdit, s).
			Permit(TriggerReset, StatePending)
	}
	b.Configure(StateFinalized).
		Permit(TriggerReset, StatePending)
	return b.Build(initial)
}

// AlwaysReady is a guard that never refuses
func AlwaysReady(context.Context) error {
	return nil
}

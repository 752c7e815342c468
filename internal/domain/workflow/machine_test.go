package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"finalized", StateFinalized, true},
		{"unknown", State("rejected"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsValid())
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().Configure(State("INVALID"))
	})
}

func TestBuilder_BuildRejectsInvalidInitialState(t *testing.T) {
	_, err := NewBuilder().Build(State("INVALID"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBuilder_BuildCopiesConfiguration(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).Permit(TriggerApprove, StateApproved)
	m, err := b.Build(StatePending)
	require.NoError(t, err)

	// later configuration must not leak into built machines
	b.Configure(StatePending).Permit(TriggerArchive, StateArchived)
	assert.False(t, m.CanFire(TriggerArchive))
	assert.True(t, m.CanFire(TriggerApprove))
}

func TestStateMachine_GuardReason(t *testing.T) {
	reason := errors.New("not ready")
	b := NewBuilder()
	b.Configure(StatePending).PermitIf(TriggerFinalize, StateFinalized, func(context.Context) error {
		return reason
	})
	m, err := b.Build(StatePending)
	require.NoError(t, err)

	changed, err := m.Fire(context.Background(), TriggerFinalize)
	assert.False(t, changed)
	assert.ErrorIs(t, err, ErrGuardFailed)
	assert.ErrorIs(t, err, reason)
	assert.Equal(t, StatePending, m.State())
}

func TestStateMachine_GuardFallsThrough(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerApprove, StateArchived, func(context.Context) error { return errors.New("no") }).
		Permit(TriggerApprove, StateApproved)
	m, err := b.Build(StatePending)
	require.NoError(t, err)

	changed, err := m.Fire(context.Background(), TriggerApprove)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateApproved, m.State())
}

func TestEntryMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("approve pending", func(t *testing.T) {
		m, err := NewEntryMachine(StatePending)
		require.NoError(t, err)
		changed, err := m.Fire(ctx, TriggerApprove)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StateApproved, m.State())
	})

	t.Run("approve approved is a no-op", func(t *testing.T) {
		m, err := NewEntryMachine(StateApproved)
		require.NoError(t, err)
		changed, err := m.Fire(ctx, TriggerApprove)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, StateApproved, m.State())
	})

	t.Run("archive only from approved", func(t *testing.T) {
		m, err := NewEntryMachine(StatePending)
		require.NoError(t, err)
		_, err = m.Fire(ctx, TriggerArchive)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("archived is terminal", func(t *testing.T) {
		m, err := NewEntryMachine(StateArchived)
		require.NoError(t, err)
		for _, trig := range []Trigger{TriggerApprove, TriggerEdit, TriggerUnapprove} {
			_, err = m.Fire(ctx, trig)
			assert.ErrorIs(t, err, ErrInvalidTransition, trig.String())
		}
	})
}

func TestTimesheetMachine(t *testing.T) {
	ctx := context.Background()
	notReady := errors.New("entries pending")

	t.Run("finalize when ready", func(t *testing.T) {
		m, err := NewTimesheetMachine(StatePending, AlwaysReady)
		require.NoError(t, err)
		changed, err := m.Fire(ctx, TriggerFinalize)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StateFinalized, m.State())
	})

	t.Run("finalize refused", func(t *testing.T) {
		m, err := NewTimesheetMachine(StatePending, func(context.Context) error { return notReady })
		require.NoError(t, err)
		_, err = m.Fire(ctx, TriggerFinalize)
		assert.ErrorIs(t, err, notReady)
		assert.Equal(t, StatePending, m.State())
	})

	t.Run("finalized blocks edits", func(t *testing.T) {
		m, err := NewTimesheetMachine(StateFinalized, AlwaysReady)
		require.NoError(t, err)
		assert.False(t, m.CanFire(TriggerEdit))
		_, err = m.Fire(ctx, TriggerFinalize)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("reset reopens finalized", func(t *testing.T) {
		m, err := NewTimesheetMachine(StateFinalized, AlwaysReady)
		require.NoError(t, err)
		_, err = m.Fire(ctx, TriggerReset)
		require.NoError(t, err)
		assert.Equal(t, StatePending, m.State())
	})
}

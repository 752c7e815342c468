package service

import (
	"context"
	"testing"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagEntry(in, out string) *entity.TimesheetEntry {
	start, end := localTime("2025-12-08 09:00"), localTime("2025-12-08 17:00")
	e := &entity.TimesheetEntry{
		WiwTimeID:      9001,
		Date:           localTime("2025-12-08 00:00"),
		ScheduledStart: &start,
		ScheduledEnd:   &end,
		BreakMinutes:   30,
	}
	if in != "" {
		t := localTime(in)
		e.ClockIn = &t
	}
	if out != "" {
		t := localTime(out)
		e.ClockOut = &t
	}
	e.Recompute()
	return e
}

func TestFlagService_Reconcile(t *testing.T) {
	store := memstore.New()
	clock := &fixedClock{now: localTime("2025-12-10 12:00")}
	svc := NewFlagService(store.Flags(), clock, NopLogger())
	ctx := context.Background()

	e := flagEntry("2025-12-08 09:20", "2025-12-08 16:00")
	result, err := svc.Reconcile(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, []flag.Type{flag.TypeEarlyClockOut, flag.TypeLateClockIn, flag.TypeScheduleMismatch}, result.Inserted)
	assert.Empty(t, result.Resolved)

	// second pass writes nothing
	result, err = svc.Reconcile(ctx, e)
	require.NoError(t, err)
	assert.False(t, result.Changed())

	fixed := flagEntry("2025-12-08 09:00", "2025-12-08 17:00")
	fixed.BreakMinutes = 0
	fixed.Recompute()
	result, err = svc.Reconcile(ctx, fixed)
	require.NoError(t, err)
	assert.Equal(t, []flag.Type{flag.TypeEarlyClockOut, flag.TypeLateClockIn, flag.TypeScheduleMismatch}, result.Resolved)
	assert.Empty(t, result.Inserted)

	// resolved rows are reactivated in place, never duplicated
	clock.now = localTime("2025-12-11 12:00")
	result, err = svc.Reconcile(ctx, e)
	require.NoError(t, err)
	assert.Len(t, result.Activated, 3)
	assert.Empty(t, result.Inserted)

	flags := store.AllFlags()
	require.Len(t, flags, 3)
	for _, f := range flags {
		assert.True(t, f.IsActive())
		assert.Equal(t, clock.now, f.UpdatedAt)
		assert.Equal(t, f.Type.Description(), f.Description)
	}
}

func TestFlagService_ResolvedTypesAreNotInserted(t *testing.T) {
	store := memstore.New()
	svc := NewFlagService(store.Flags(), &fixedClock{now: localTime("2025-12-10 12:00")}, NopLogger())

	e := flagEntry("2025-12-08 09:00", "")
	result, err := svc.Reconcile(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []flag.Type{flag.TypeMissingClockOut, flag.TypeScheduleMismatch}, result.Inserted)
	assert.Len(t, store.AllFlags(), 2)
}

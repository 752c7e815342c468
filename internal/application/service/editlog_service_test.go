package service

import (
	"context"
	"testing"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffEntries(t *testing.T) {
	before := flagEntry("2025-12-08 08:58", "")
	after := before.Clone()
	out := localTime("2025-12-08 17:03")
	after.ClockOut = &out
	after.Recompute()

	changes := DiffEntries(before, after)
	assert.Equal(t, []FieldChange{
		{EditType: entity.EditClockOut, OldValue: "", NewValue: "2025-12-08 17:03:00"},
		{EditType: entity.EditClockedHours, OldValue: "0.00", NewValue: "7.58"},
		{EditType: entity.EditPayableHours, OldValue: "0.00", NewValue: "7.50"},
		{EditType: entity.EditAdditionalHours, OldValue: "0.00", NewValue: "0.05"},
	}, changes)

	assert.Empty(t, DiffEntries(after, after.Clone()))

	decided := after.Clone()
	decided.ExtraTimeStatus = entity.ExtraTimeDenied
	assert.Equal(t, []FieldChange{
		{EditType: entity.EditExtraTimeStatus, OldValue: "unset", NewValue: "denied"},
	}, DiffEntries(after, decided))
}

func TestEditLogWriter_Rows(t *testing.T) {
	store := memstore.New()
	clock := &fixedClock{now: localTime("2025-12-10 12:00")}
	w := NewEditLogWriter(store.EditLogs(), clock, NopLogger())

	e := flagEntry("2025-12-08 08:58", "2025-12-08 17:03")
	e.ID, e.TimesheetID, e.EmployeeID, e.EmployeeName = 7, 2, 11, "Dana Reyes"
	e.LocationID, e.LocationName = 3, "Riverside"

	row := w.EntryRow(client, e, entity.EditApprovedTimeRecord, "pending", "approved")
	assert.Equal(t, int64(7), row.EntryID)
	assert.Equal(t, int64(9001), row.WiwTimeID)
	assert.Equal(t, "riverside", row.UserLogin)
	assert.Equal(t, "2025-12-07", dateText(row.WeekStartDate))
	assert.Equal(t, clock.now, row.CreatedAt)

	ts := &entity.Timesheet{ID: 2, EmployeeID: 11, LocationID: 3, PeriodStart: localTime("2025-12-07 00:00")}
	header := w.TimesheetRow(admin, ts, entity.EditResetTimeSheet, "finalized", "pending")
	assert.Equal(t, int64(2), header.WiwTimeID)
	assert.Zero(t, header.EntryID)
	assert.Equal(t, ts.PeriodStart, header.WeekStartDate)

	require.NoError(t, w.Append(context.Background(), row, header))
	logs := store.AllLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, entity.EditApprovedTimeRecord, logs[0].EditType)
	assert.Equal(t, entity.EditResetTimeSheet, logs[1].EditType)
}

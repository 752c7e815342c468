package entity

import (
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localTime(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestTimesheetEntry_Recompute(t *testing.T) {
	e := &TimesheetEntry{
		ClockIn:        localTime("2025-12-08 08:58"),
		ClockOut:       localTime("2025-12-08 17:03"),
		BreakMinutes:   30,
		ScheduledStart: localTime("2025-12-08 09:00"),
		ScheduledEnd:   localTime("2025-12-08 17:00"),
	}
	e.Recompute()

	assert.Equal(t, "7.58", e.ClockedHours.StringFixed(2))
	assert.Equal(t, "7.50", e.PayableHours.StringFixed(2))
	assert.Equal(t, "8.00", e.ScheduledHours.StringFixed(2))
	assert.Equal(t, "0.05", e.AdditionalHours.StringFixed(2))

	assert.Equal(t, []flag.Type{flag.TypeUnconfirmedExtra, flag.TypeScheduleMismatch}, flag.Active(e.Snapshot()))
}

func TestTimesheetEntry_MissingClockOut(t *testing.T) {
	e := &TimesheetEntry{
		ClockIn:        localTime("2025-12-08 09:00"),
		ScheduledStart: localTime("2025-12-08 09:00"),
		ScheduledEnd:   localTime("2025-12-08 17:00"),
	}
	e.Recompute()

	assert.True(t, e.ClockedHours.IsZero())
	assert.True(t, e.PayableHours.IsZero())
	assert.Contains(t, flag.Active(e.Snapshot()), flag.TypeMissingClockOut)
}

func TestTimesheetEntry_Clone(t *testing.T) {
	e := &TimesheetEntry{ClockIn: localTime("2025-12-08 09:00")}
	c := e.Clone()
	*c.ClockIn = c.ClockIn.Add(time.Hour)
	assert.Equal(t, 9, e.ClockIn.Hour())
}

func TestTimesheet_Totals(t *testing.T) {
	entries := []*TimesheetEntry{
		{ScheduledHours: decimal.RequireFromString("8"), ClockedHours: decimal.RequireFromString("7.58"), PayableHours: decimal.RequireFromString("7.5")},
		{ScheduledHours: decimal.RequireFromString("4"), ClockedHours: decimal.RequireFromString("4.25"), PayableHours: decimal.RequireFromString("4")},
	}
	var ts Timesheet
	ts.Totals(entries)

	require.Equal(t, "12.00", ts.ScheduledHours.StringFixed(2))
	assert.Equal(t, "11.83", ts.ClockedHours.StringFixed(2))
	assert.Equal(t, "11.50", ts.PayableHours.StringFixed(2))
}

func TestActor_CanAccess(t *testing.T) {
	admin := Actor{Role: RoleAdmin}
	client := Actor{Role: RoleClient, LocationID: 7}

	assert.True(t, admin.CanAccess(99))
	assert.True(t, client.CanAccess(7))
	assert.False(t, client.CanAccess(8))
	assert.False(t, Actor{}.CanAccess(0))
}

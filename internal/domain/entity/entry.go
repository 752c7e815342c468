package entity

import (
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a daily time record
type EntryStatus string

const (
	EntryPending  EntryStatus = "pending"
	EntryApproved EntryStatus = "approved"
	EntryArchived EntryStatus = "archived"
)

// ExtraTimeStatus records the decision on time worked past the schedule
type ExtraTimeStatus string

const (
	ExtraTimeUnset     ExtraTimeStatus = ""
	ExtraTimeConfirmed ExtraTimeStatus = "confirmed"
	ExtraTimeDenied    ExtraTimeStatus = "denied"
)

// IsDecided reports whether a confirm or deny decision was recorded
func (s ExtraTimeStatus) IsDecided() bool {
	return s == ExtraTimeConfirmed || s == ExtraTimeDenied
}

// Label renders the status for audit rows
func (s ExtraTimeStatus) Label() string {
	if s == ExtraTimeUnset {
		return "unset"
	}
	return string(s)
}

// TimesheetEntry is one daily time record tied to a provider time id.
// Clock and schedule times are local wall-clock values; nil means N/A.
type TimesheetEntry struct {
	ID                    int64           `json:"id"`
	TimesheetID           int64           `json:"timesheet_id"`
	WiwTimeID             int64           `json:"wiw_time_id"`
	WiwShiftID            int64           `json:"wiw_shift_id"`
	EmployeeID            int64           `json:"employee_id"`
	EmployeeName          string          `json:"employee_name"`
	Date                  time.Time       `json:"date"`
	ScheduledStart        *time.Time      `json:"scheduled_start,omitempty"`
	ScheduledEnd          *time.Time      `json:"scheduled_end,omitempty"`
	ScheduledBreakMinutes int             `json:"scheduled_break_minutes"`
	ClockIn               *time.Time      `json:"clock_in,omitempty"`
	ClockOut              *time.Time      `json:"clock_out,omitempty"`
	BreakMinutes          int             `json:"break_minutes"`
	ScheduledHours        decimal.Decimal `json:"scheduled_hours"`
	ClockedHours          decimal.Decimal `json:"clocked_hours"`
	PayableHours          decimal.Decimal `json:"payable_hours"`
	AdditionalHours       decimal.Decimal `json:"additional_hours"`
	ExtraTimeStatus       ExtraTimeStatus `json:"extra_time_status"`
	Status                EntryStatus     `json:"status"`
	LocationID            int64           `json:"location_id"`
	LocationName          string          `json:"location_name"`
	LocallyEdited         bool            `json:"locally_edited"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Inputs returns the stored fields the hour columns derive from
func (e *TimesheetEntry) Inputs() timemath.Inputs {
	return timemath.Inputs{
		ClockIn:               e.ClockIn,
		ClockOut:              e.ClockOut,
		BreakMinutes:          e.BreakMinutes,
		ScheduledStart:        e.ScheduledStart,
		ScheduledEnd:          e.ScheduledEnd,
		ScheduledBreakMinutes: e.ScheduledBreakMinutes,
		ExtraTimeConfirmed:    e.ExtraTimeStatus == ExtraTimeConfirmed,
	}
}

// Recompute rederives every hour column from the current inputs
func (e *TimesheetEntry) Recompute() {
	r := timemath.Compute(e.Inputs())
	e.ScheduledHours = r.ScheduledHours
	e.ClockedHours = r.ClockedHours
	e.PayableHours = r.PayableHours
	e.AdditionalHours = r.AdditionalHours
}

// Snapshot returns the fields the flag rules evaluate
func (e *TimesheetEntry) Snapshot() flag.Snapshot {
	s := flag.Snapshot{
		ClockIn:         e.ClockIn,
		ClockOut:        e.ClockOut,
		ScheduledStart:  e.ScheduledStart,
		ScheduledEnd:    e.ScheduledEnd,
		AdditionalHours: e.AdditionalHours,
		ExtraTimeUnset:  e.ExtraTimeStatus == ExtraTimeUnset,
	}
	payable := e.PayableHours
	s.PayableHours = &payable
	if e.ScheduledStart != nil && e.ScheduledEnd != nil {
		scheduled := e.ScheduledHours
		s.ScheduledHours = &scheduled
	}
	return s
}

// Clone returns a copy safe to mutate independently
func (e *TimesheetEntry) Clone() *TimesheetEntry {
	c := *e
	c.ScheduledStart = cloneTime(e.ScheduledStart)
	c.ScheduledEnd = cloneTime(e.ScheduledEnd)
	c.ClockIn = cloneTime(e.ClockIn)
	c.ClockOut = cloneTime(e.ClockOut)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// EntryFilter narrows entry queries. Zero values match everything.
type EntryFilter struct {
	TimesheetID int64
	LocationID  int64
	Status      EntryStatus
	DateBefore  *time.Time
	DateFrom    *time.Time
	DateTo      *time.Time
}

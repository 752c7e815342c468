package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// HeaderStatus is the lifecycle state of a pay-period timesheet
type HeaderStatus string

const (
	HeaderPending   HeaderStatus = "pending"
	HeaderApproved  HeaderStatus = "approved"
	HeaderFinalized HeaderStatus = "finalized"
)

// IsLocked reports whether entries under the header are read-only
func (s HeaderStatus) IsLocked() bool {
	return s == HeaderFinalized
}

// Timesheet is the pay-period aggregate for one employee at one location
type Timesheet struct {
	ID             int64           `json:"id"`
	EmployeeID     int64           `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	LocationID     int64           `json:"location_id"`
	LocationName   string          `json:"location_name"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	ScheduledHours decimal.Decimal `json:"scheduled_hours"`
	ClockedHours   decimal.Decimal `json:"clocked_hours"`
	PayableHours   decimal.Decimal `json:"payable_hours"`
	Status         HeaderStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Totals sums the hour columns of entries into the header aggregates
func (t *Timesheet) Totals(entries []*TimesheetEntry) {
	t.ScheduledHours = decimal.Zero
	t.ClockedHours = decimal.Zero
	t.PayableHours = decimal.Zero
	for _, e := range entries {
		t.ScheduledHours = t.ScheduledHours.Add(e.ScheduledHours)
		t.ClockedHours = t.ClockedHours.Add(e.ClockedHours)
		t.PayableHours = t.PayableHours.Add(e.PayableHours)
	}
}

// TimesheetFilter narrows timesheet queries. Zero values match everything.
type TimesheetFilter struct {
	LocationID  int64
	EmployeeID  int64
	Status      HeaderStatus
	PeriodStart *time.Time
	Limit       int
	Offset      int
}

package entity

import "time"

// Edit types written to the audit ledger
const (
	EditApprovedTimeRecord   = "Approved Time Record"
	EditUnapprovedTimeRecord = "Unapproved Time Record"
	EditApprovedTimeSheet    = "Approved Time Sheet"
	EditResetTimeSheet       = "Reset Time Sheet"
	EditImportedTimeRecord   = "Imported Time Record"
	EditClockIn              = "Clock In"
	EditClockOut             = "Clock Out"
	EditBreakMinutes         = "Break Minutes"
	EditScheduledStart       = "Scheduled Start"
	EditScheduledEnd         = "Scheduled End"
	EditScheduledHours       = "Scheduled Hours"
	EditClockedHours         = "Clocked Hours"
	EditPayableHours         = "Payable Hours"
	EditAdditionalHours      = "Additional Hours"
	EditExtraTimeStatus      = "Extra Time Status"
)

// EditLogRow is one append-only audit record of a single field change.
// Header-level rows carry EntryID 0 and the timesheet id in WiwTimeID.
type EditLogRow struct {
	ID              int64     `json:"id"`
	TimesheetID     int64     `json:"timesheet_id"`
	EntryID         int64     `json:"entry_id"`
	WiwTimeID       int64     `json:"wiw_time_id"`
	EditType        string    `json:"edit_type"`
	OldValue        string    `json:"old_value"`
	NewValue        string    `json:"new_value"`
	UserID          int64     `json:"user_id"`
	UserLogin       string    `json:"user_login"`
	UserDisplayName string    `json:"user_display_name"`
	EmployeeID      int64     `json:"employee_id"`
	EmployeeName    string    `json:"employee_name"`
	LocationID      int64     `json:"location_id"`
	LocationName    string    `json:"location_name"`
	WeekStartDate   time.Time `json:"week_start_date"`
	CreatedAt       time.Time `json:"created_at"`
}

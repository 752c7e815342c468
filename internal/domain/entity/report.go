package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/shopspring/decimal"
)

// ApprovalReport describes one auto-approval run for human review
type ApprovalReport struct {
	RunID        string      `json:"run_id"`
	DryRun       bool        `json:"dry_run"`
	Now          time.Time   `json:"now"`
	WeekStart    time.Time   `json:"week_start"`
	Cutoff       time.Time   `json:"cutoff"`
	NextDeadline time.Time   `json:"next_deadline"`
	Eligible     int         `json:"eligible"`
	Approved     int         `json:"approved"`
	Rows         []ReportRow `json:"rows"`
	Warnings     []string    `json:"warnings,omitempty"`
	Errors       []string    `json:"errors,omitempty"`
}

// ReportRow is one affected entry with its remediation deltas
type ReportRow struct {
	EntryID         int64           `json:"entry_id"`
	TimesheetID     int64           `json:"timesheet_id"`
	WiwTimeID       int64           `json:"wiw_time_id"`
	EmployeeName    string          `json:"employee_name"`
	LocationName    string          `json:"location_name"`
	Date            time.Time       `json:"date"`
	ClockOutBefore  string          `json:"clock_out_before"`
	ClockOutAfter   string          `json:"clock_out_after"`
	PayableBefore   decimal.Decimal `json:"payable_before"`
	PayableAfter    decimal.Decimal `json:"payable_after"`
	ExtraTimeBefore string          `json:"extra_time_before"`
	ExtraTimeAfter  string          `json:"extra_time_after"`
	ResolvedFlags   []flag.Type     `json:"resolved_flags,omitempty"`
	Approved        bool            `json:"approved"`
	Error           string          `json:"error,omitempty"`
}

// Remediated reports whether the row changed anything besides status
func (r ReportRow) Remediated() bool {
	return len(r.ResolvedFlags) > 0
}

// Summary renders the human-readable header of the report
func (r *ApprovalReport) Summary() string {
	var b strings.Builder
	title := "Timesheet auto-approval"
	if r.DryRun {
		title += " (preview)"
	}
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Now: %s\n", r.Now.Format("Mon Jan 2, 2006 15:04 MST"))
	fmt.Fprintf(&b, "Next approval deadline: %s\n", r.NextDeadline.Format("Mon Jan 2, 2006 15:04 MST"))
	fmt.Fprintf(&b, "Cutoff: entries dated before %s\n", r.Cutoff.Format("Mon Jan 2, 2006"))
	fmt.Fprintf(&b, "Affected entries: %d (approved %d)\n", r.Eligible, r.Approved)

	remediated := 0
	for _, row := range r.Rows {
		if row.Remediated() {
			remediated++
		}
	}
	fmt.Fprintf(&b, "Auto-remediated: %d\n", remediated)
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "Warnings: %d\n", len(r.Warnings))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", len(r.Errors))
	}
	return b.String()
}

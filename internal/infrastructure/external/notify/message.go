// Package notify delivers auto-approval reports by email and Slack.
package notify

import (
	"fmt"
	"strings"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

// Subject is the one-line title used by every channel
func Subject(report *entity.ApprovalReport) string {
	prefix := "Timesheet auto-approval"
	if report.DryRun {
		prefix = "Timesheet auto-approval preview"
	}
	return fmt.Sprintf("%s: %d entries, cutoff %s", prefix, report.Eligible, report.Cutoff.Format("Jan 2, 2006"))
}

// Body renders the summary followed by one line per remediated or failed row
func Body(report *entity.ApprovalReport) string {
	var b strings.Builder
	b.WriteString(report.Summary())

	var lines []string
	for _, row := range report.Rows {
		if !row.Remediated() && row.Error == "" {
			continue
		}
		line := fmt.Sprintf("- %s, %s, %s: payable %s -> %s",
			row.EmployeeName, row.LocationName, row.Date.Format("2006-01-02"),
			row.PayableBefore.StringFixed(2), row.PayableAfter.StringFixed(2))
		if row.ClockOutBefore != row.ClockOutAfter {
			line += fmt.Sprintf(", clock out %s -> %s", orNA(row.ClockOutBefore), row.ClockOutAfter)
		}
		if row.ExtraTimeBefore != row.ExtraTimeAfter {
			line += fmt.Sprintf(", extra time %s -> %s", row.ExtraTimeBefore, row.ExtraTimeAfter)
		}
		if row.Error != "" {
			line += " (error: " + row.Error + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("\nChanges:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}
	for _, w := range report.Warnings {
		b.WriteString("Warning: " + w + "\n")
	}
	for _, e := range report.Errors {
		b.WriteString("Error: " + e + "\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

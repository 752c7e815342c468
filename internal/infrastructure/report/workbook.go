// Package report renders auto-approval reports as Excel workbooks.
package report

import (
	"fmt"
	"strings"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	SummarySheet = "Summary"
	EntriesSheet = "Entries"
)

var entryColumns = []string{
	"Time Record", "Employee", "Location", "Date",
	"Clock Out Before", "Clock Out After",
	"Payable Before", "Payable After",
	"Extra Time Before", "Extra Time After",
	"Resolved Flags", "Approved", "Error",
}

// WorkbookRenderer builds a two-sheet workbook: the run summary and one row
// per affected entry
type WorkbookRenderer struct {
	logger *zap.Logger
}

var _ port.ReportRenderer = (*WorkbookRenderer)(nil)

// NewWorkbookRenderer creates a new WorkbookRenderer
func NewWorkbookRenderer(logger *zap.Logger) *WorkbookRenderer {
	return &WorkbookRenderer{logger: logger}
}

func (r *WorkbookRenderer) Render(report *entity.ApprovalReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(EntriesSheet); err != nil {
		return nil, fmt.Errorf("failed to create entries sheet: %w", err)
	}

	r.fillSummary(f, report)
	if err := r.fillEntries(f, report); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("Report workbook rendered",
		zap.String("run_id", report.RunID),
		zap.Int("rows", len(report.Rows)),
		zap.Int("size", buf.Len()))
	return buf.Bytes(), nil
}

func (r *WorkbookRenderer) fillSummary(f *excelize.File, report *entity.ApprovalReport) {
	mode := "Live"
	if report.DryRun {
		mode = "Preview"
	}
	pairs := [][2]string{
		{"Run", report.RunID},
		{"Mode", mode},
		{"Generated", report.Now.Format("2006-01-02 15:04 MST")},
		{"Approval week", report.WeekStart.Format("2006-01-02")},
		{"Cutoff", report.Cutoff.Format("2006-01-02")},
		{"Next deadline", report.NextDeadline.Format("2006-01-02 15:04 MST")},
		{"Affected entries", fmt.Sprint(report.Eligible)},
		{"Approved", fmt.Sprint(report.Approved)},
		{"Warnings", fmt.Sprint(len(report.Warnings))},
		{"Errors", fmt.Sprint(len(report.Errors))},
	}
	for i, p := range pairs {
		row := i + 1
		r.setCell(f, SummarySheet, fmt.Sprintf("A%d", row), p[0])
		r.setCell(f, SummarySheet, fmt.Sprintf("B%d", row), p[1])
	}

	row := len(pairs) + 2
	for _, w := range report.Warnings {
		r.setCell(f, SummarySheet, fmt.Sprintf("A%d", row), "Warning")
		r.setCell(f, SummarySheet, fmt.Sprintf("B%d", row), w)
		row++
	}
	for _, e := range report.Errors {
		r.setCell(f, SummarySheet, fmt.Sprintf("A%d", row), "Error")
		r.setCell(f, SummarySheet, fmt.Sprintf("B%d", row), e)
		row++
	}
}

func (r *WorkbookRenderer) fillEntries(f *excelize.File, report *entity.ApprovalReport) error {
	header := make([]interface{}, len(entryColumns))
	for i, c := range entryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(EntriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range report.Rows {
		approved := "No"
		if row.Approved {
			approved = "Yes"
		}
		values := []interface{}{
			row.WiwTimeID,
			row.EmployeeName,
			row.LocationName,
			row.Date.Format("2006-01-02"),
			orNA(row.ClockOutBefore),
			orNA(row.ClockOutAfter),
			row.PayableBefore.StringFixed(2),
			row.PayableAfter.StringFixed(2),
			row.ExtraTimeBefore,
			row.ExtraTimeAfter,
			flagList(row.ResolvedFlags),
			approved,
			row.Error,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EntriesSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

func (r *WorkbookRenderer) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func flagList(types []flag.Type) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d", int(t)))
	}
	return strings.Join(parts, ", ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/shopspring/decimal"
)

// FieldChange is one old/new pair for a labelled field
type FieldChange struct {
	EditType string
	OldValue string
	NewValue string
}

// DiffEntries lists every audited field that differs between before and
// after, in a fixed order.
func DiffEntries(before, after *entity.TimesheetEntry) []FieldChange {
	var changes []FieldChange
	add := func(editType, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, FieldChange{EditType: editType, OldValue: oldValue, NewValue: newValue})
		}
	}

	add(entity.EditClockIn, timemath.FormatLocal(before.ClockIn), timemath.FormatLocal(after.ClockIn))
	add(entity.EditClockOut, timemath.FormatLocal(before.ClockOut), timemath.FormatLocal(after.ClockOut))
	add(entity.EditBreakMinutes, strconv.Itoa(before.BreakMinutes), strconv.Itoa(after.BreakMinutes))
	add(entity.EditScheduledStart, timemath.FormatLocal(before.ScheduledStart), timemath.FormatLocal(after.ScheduledStart))
	add(entity.EditScheduledEnd, timemath.FormatLocal(before.ScheduledEnd), timemath.FormatLocal(after.ScheduledEnd))
	add(entity.EditScheduledHours, hoursText(before.ScheduledHours), hoursText(after.ScheduledHours))
	add(entity.EditClockedHours, hoursText(before.ClockedHours), hoursText(after.ClockedHours))
	add(entity.EditPayableHours, hoursText(before.PayableHours), hoursText(after.PayableHours))
	add(entity.EditAdditionalHours, hoursText(before.AdditionalHours), hoursText(after.AdditionalHours))
	add(entity.EditExtraTimeStatus, before.ExtraTimeStatus.Label(), after.ExtraTimeStatus.Label())
	return changes
}

func hoursText(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// EditLogWriter builds and appends audit rows
type EditLogWriter interface {
	// EntryRow builds a row for an event on one time record
	EntryRow(actor entity.Actor, entry *entity.TimesheetEntry, editType, oldValue, newValue string) *entity.EditLogRow

	// TimesheetRow builds a header-level row. The time record column holds
	// the timesheet id and the entry id is 0.
	TimesheetRow(actor entity.Actor, ts *entity.Timesheet, editType, oldValue, newValue string) *entity.EditLogRow

	// DiffRows builds one row per changed field
	DiffRows(actor entity.Actor, before, after *entity.TimesheetEntry) []*entity.EditLogRow

	// Append writes rows in order and joins the failures
	Append(ctx context.Context, rows ...*entity.EditLogRow) error
}

type editLogWriterImpl struct {
	logRepo port.EditLogRepository
	clock   port.Clock
	logger  Logger
}

// NewEditLogWriter creates a new EditLogWriter
func NewEditLogWriter(logRepo port.EditLogRepository, clock port.Clock, logger Logger) EditLogWriter {
	return &editLogWriterImpl{
		logRepo: logRepo,
		clock:   clock,
		logger:  logger,
	}
}

func (w *editLogWriterImpl) EntryRow(actor entity.Actor, entry *entity.TimesheetEntry, editType, oldValue, newValue string) *entity.EditLogRow {
	return &entity.EditLogRow{
		TimesheetID:     entry.TimesheetID,
		EntryID:         entry.ID,
		WiwTimeID:       entry.WiwTimeID,
		EditType:        editType,
		OldValue:        oldValue,
		NewValue:        newValue,
		UserID:          actor.UserID,
		UserLogin:       actor.Login,
		UserDisplayName: actor.DisplayName,
		EmployeeID:      entry.EmployeeID,
		EmployeeName:    entry.EmployeeName,
		LocationID:      entry.LocationID,
		LocationName:    entry.LocationName,
		WeekStartDate:   period.WeekStart(entry.Date, w.clock.Location()),
		CreatedAt:       w.clock.Now(),
	}
}

func (w *editLogWriterImpl) TimesheetRow(actor entity.Actor, ts *entity.Timesheet, editType, oldValue, newValue string) *entity.EditLogRow {
	return &entity.EditLogRow{
		TimesheetID:     ts.ID,
		EntryID:         0,
		WiwTimeID:       ts.ID,
		EditType:        editType,
		OldValue:        oldValue,
		NewValue:        newValue,
		UserID:          actor.UserID,
		UserLogin:       actor.Login,
		UserDisplayName: actor.DisplayName,
		EmployeeID:      ts.EmployeeID,
		EmployeeName:    ts.EmployeeName,
		LocationID:      ts.LocationID,
		LocationName:    ts.LocationName,
		WeekStartDate:   ts.PeriodStart,
		CreatedAt:       w.clock.Now(),
	}
}

func (w *editLogWriterImpl) DiffRows(actor entity.Actor, before, after *entity.TimesheetEntry) []*entity.EditLogRow {
	changes := DiffEntries(before, after)
	rows := make([]*entity.EditLogRow, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, w.EntryRow(actor, after, c.EditType, c.OldValue, c.NewValue))
	}
	return rows
}

func (w *editLogWriterImpl) Append(ctx context.Context, rows ...*entity.EditLogRow) error {
	var errs []error
	for _, row := range rows {
		if err := w.logRepo.Append(ctx, row); err != nil {
			w.logger.Error("Failed to append edit log", "error", err, "edit_type", row.EditType, "wiw_time_id", row.WiwTimeID)
			errs = append(errs, fmt.Errorf("append %q: %w", row.EditType, err))
		}
	}
	return errors.Join(errs...)
}

// derivedWarning logs a failed derived write and returns its report text
func derivedWarning(logger Logger, kind string, timeID int64, err error) string {
	w := &apperr.DerivedWriteWarning{Kind: kind, TimeID: timeID, Err: err}
	logger.Warn("Derived write failed", "kind", kind, "wiw_time_id", timeID, "error", err)
	return w.Error()
}

func dateText(t time.Time) string {
	return t.Format(timemath.DateLayout)
}

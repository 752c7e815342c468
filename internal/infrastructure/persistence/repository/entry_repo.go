package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const entryColumns = `
	id, timesheet_id, wiw_time_id, wiw_shift_id, employee_id, employee_name, date,
	scheduled_start, scheduled_end, scheduled_break_minutes,
	clock_in, clock_out, break_minutes,
	scheduled_hours, clocked_hours, payable_hours, additional_hours,
	extra_time_status, status, location_id, location_name, locally_edited,
	created_at, updated_at`

// EntryRepository implements port.EntryRepository
type EntryRepository struct {
	db     *sql.DB
	loc    *time.Location
	logger *zap.Logger
}

// NewEntryRepository creates a new entry repository. Local datetimes are
// read back in loc.
func NewEntryRepository(db *sql.DB, loc *time.Location, logger *zap.Logger) *EntryRepository {
	return &EntryRepository{
		db:     db,
		loc:    loc,
		logger: logger,
	}
}

// Create inserts a new daily time record
func (r *EntryRepository) Create(ctx context.Context, e *entity.TimesheetEntry) error {
	query := `
		INSERT INTO timesheet_entries (
			timesheet_id, wiw_time_id, wiw_shift_id, employee_id, employee_name, date,
			scheduled_start, scheduled_end, scheduled_break_minutes,
			clock_in, clock_out, break_minutes,
			scheduled_hours, clocked_hours, payable_hours, additional_hours,
			extra_time_status, status, location_id, location_name, locally_edited,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		e.TimesheetID,
		e.WiwTimeID,
		e.WiwShiftID,
		e.EmployeeID,
		e.EmployeeName,
		dateValue(e.Date),
		localValue(e.ScheduledStart),
		localValue(e.ScheduledEnd),
		e.ScheduledBreakMinutes,
		localValue(e.ClockIn),
		localValue(e.ClockOut),
		e.BreakMinutes,
		hoursValue(e.ScheduledHours),
		hoursValue(e.ClockedHours),
		hoursValue(e.PayableHours),
		hoursValue(e.AdditionalHours),
		string(e.ExtraTimeStatus),
		string(e.Status),
		e.LocationID,
		e.LocationName,
		boolValue(e.LocallyEdited),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create entry", zap.Int64("wiw_time_id", e.WiwTimeID), zap.Error(err))
		return fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// GetByID retrieves an entry by ID
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error) {
	return r.queryOne(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE id = ?`, id)
}

// GetByTimeID retrieves an entry by its provider time id
func (r *EntryRepository) GetByTimeID(ctx context.Context, wiwTimeID int64) (*entity.TimesheetEntry, error) {
	return r.queryOne(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE wiw_time_id = ?`, wiwTimeID)
}

// ListByTimesheet returns every entry under a header in date order
func (r *EntryRepository) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.TimesheetEntry, error) {
	return r.List(ctx, entity.EntryFilter{TimesheetID: timesheetID})
}

// List returns entries matching the filter in date order
func (r *EntryRepository) List(ctx context.Context, filter entity.EntryFilter) ([]*entity.TimesheetEntry, error) {
	var where []string
	var args []interface{}
	if filter.TimesheetID != 0 {
		where = append(where, "timesheet_id = ?")
		args = append(args, filter.TimesheetID)
	}
	if filter.LocationID != 0 {
		where = append(where, "location_id = ?")
		args = append(args, filter.LocationID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DateBefore != nil {
		where = append(where, "date < ?")
		args = append(args, dateValue(*filter.DateBefore))
	}
	if filter.DateFrom != nil {
		where = append(where, "date >= ?")
		args = append(args, dateValue(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		where = append(where, "date <= ?")
		args = append(args, dateValue(*filter.DateTo))
	}

	query := `SELECT ` + entryColumns + ` FROM timesheet_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TimesheetEntry
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Update writes every mutable column, guarded by the expected status
func (r *EntryRepository) Update(ctx context.Context, e *entity.TimesheetEntry, expected entity.EntryStatus) error {
	query := `
		UPDATE timesheet_entries SET
			timesheet_id = ?, wiw_shift_id = ?, employee_id = ?, employee_name = ?, date = ?,
			scheduled_start = ?, scheduled_end = ?, scheduled_break_minutes = ?,
			clock_in = ?, clock_out = ?, break_minutes = ?,
			scheduled_hours = ?, clocked_hours = ?, payable_hours = ?, additional_hours = ?,
			extra_time_status = ?, location_id = ?, location_name = ?, locally_edited = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		e.TimesheetID,
		e.WiwShiftID,
		e.EmployeeID,
		e.EmployeeName,
		dateValue(e.Date),
		localValue(e.ScheduledStart),
		localValue(e.ScheduledEnd),
		e.ScheduledBreakMinutes,
		localValue(e.ClockIn),
		localValue(e.ClockOut),
		e.BreakMinutes,
		hoursValue(e.ScheduledHours),
		hoursValue(e.ClockedHours),
		hoursValue(e.PayableHours),
		hoursValue(e.AdditionalHours),
		string(e.ExtraTimeStatus),
		e.LocationID,
		e.LocationName,
		boolValue(e.LocallyEdited),
		e.UpdatedAt,
		e.ID,
		string(expected),
	)
	if err != nil {
		r.logger.Error("Failed to update entry", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireAffected(result)
}

// UpdateStatus moves an entry between statuses conditionally
func (r *EntryRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.EntryStatus) error {
	query := `UPDATE timesheet_entries SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, string(to), time.Now(), id, string(from))
	if err != nil {
		r.logger.Error("Failed to update entry status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	return requireAffected(result)
}

// ArchiveApproved archives every approved entry under the header
func (r *EntryRepository) ArchiveApproved(ctx context.Context, timesheetID int64) (int64, error) {
	query := `UPDATE timesheet_entries SET status = 'archived', updated_at = ? WHERE timesheet_id = ? AND status = 'approved'`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, time.Now(), timesheetID)
	if err != nil {
		r.logger.Error("Failed to archive entries", zap.Int64("timesheet_id", timesheetID), zap.Error(err))
		return 0, fmt.Errorf("failed to archive entries: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByTimesheet removes every entry under a header
func (r *EntryRepository) DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error) {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = ?`, timesheetID)
	if err != nil {
		r.logger.Error("Failed to delete entries", zap.Int64("timesheet_id", timesheetID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes a single entry
func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM timesheet_entries WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete entry", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(result)
}

func (r *EntryRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entity.TimesheetEntry, error) {
	e, err := r.scan(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get entry", zap.Error(err))
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

func (r *EntryRepository) scan(row rowScanner) (*entity.TimesheetEntry, error) {
	var e entity.TimesheetEntry
	var date, scheduled, clocked, payable, additional, extra, status string
	var schedStart, schedEnd, clockIn, clockOut sql.NullString
	var edited int

	err := row.Scan(
		&e.ID,
		&e.TimesheetID,
		&e.WiwTimeID,
		&e.WiwShiftID,
		&e.EmployeeID,
		&e.EmployeeName,
		&date,
		&schedStart,
		&schedEnd,
		&e.ScheduledBreakMinutes,
		&clockIn,
		&clockOut,
		&e.BreakMinutes,
		&scheduled,
		&clocked,
		&payable,
		&additional,
		&extra,
		&status,
		&e.LocationID,
		&e.LocationName,
		&edited,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Date = scanDate(date, r.loc)
	e.ScheduledStart = scanLocal(schedStart, r.loc)
	e.ScheduledEnd = scanLocal(schedEnd, r.loc)
	e.ClockIn = scanLocal(clockIn, r.loc)
	e.ClockOut = scanLocal(clockOut, r.loc)
	e.ScheduledHours = scanHours(scheduled)
	e.ClockedHours = scanHours(clocked)
	e.PayableHours = scanHours(payable)
	e.AdditionalHours = scanHours(additional)
	e.ExtraTimeStatus = entity.ExtraTimeStatus(extra)
	e.Status = entity.EntryStatus(status)
	e.LocallyEdited = edited != 0
	return &e, nil
}

var _ port.EntryRepository = (*EntryRepository)(nil)

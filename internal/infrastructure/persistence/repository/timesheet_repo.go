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

const timesheetColumns = `
	id, employee_id, employee_name, location_id, location_name,
	period_start, period_end, scheduled_hours, clocked_hours, payable_hours,
	status, created_at, updated_at`

// TimesheetRepository implements port.TimesheetRepository
type TimesheetRepository struct {
	db     *sql.DB
	loc    *time.Location
	logger *zap.Logger
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *sql.DB, loc *time.Location, logger *zap.Logger) *TimesheetRepository {
	return &TimesheetRepository{
		db:     db,
		loc:    loc,
		logger: logger,
	}
}

// Create inserts a new pay-period header
func (r *TimesheetRepository) Create(ctx context.Context, ts *entity.Timesheet) error {
	query := `
		INSERT INTO timesheets (
			employee_id, employee_name, location_id, location_name,
			period_start, period_end, scheduled_hours, clocked_hours, payable_hours,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		ts.EmployeeID,
		ts.EmployeeName,
		ts.LocationID,
		ts.LocationName,
		dateValue(ts.PeriodStart),
		dateValue(ts.PeriodEnd),
		hoursValue(ts.ScheduledHours),
		hoursValue(ts.ClockedHours),
		hoursValue(ts.PayableHours),
		string(ts.Status),
		ts.CreatedAt,
		ts.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create timesheet", zap.Int64("employee_id", ts.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create timesheet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	ts.ID = id
	return nil
}

// GetByID retrieves a timesheet by ID
func (r *TimesheetRepository) GetByID(ctx context.Context, id int64) (*entity.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = ?`
	return r.queryOne(ctx, query, id)
}

// GetByKey retrieves the header for an employee, location and period start
func (r *TimesheetRepository) GetByKey(ctx context.Context, employeeID, locationID int64, periodStart time.Time) (*entity.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + `
		FROM timesheets
		WHERE employee_id = ? AND location_id = ? AND period_start = ?`
	return r.queryOne(ctx, query, employeeID, locationID, dateValue(periodStart))
}

// List returns timesheets matching the filter, newest period first
func (r *TimesheetRepository) List(ctx context.Context, filter entity.TimesheetFilter) ([]*entity.Timesheet, error) {
	var where []string
	var args []interface{}
	if filter.LocationID != 0 {
		where = append(where, "location_id = ?")
		args = append(args, filter.LocationID)
	}
	if filter.EmployeeID != 0 {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.PeriodStart != nil {
		where = append(where, "period_start = ?")
		args = append(args, dateValue(*filter.PeriodStart))
	}

	query := `SELECT ` + timesheetColumns + ` FROM timesheets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY period_start DESC, employee_name ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list timesheets", zap.Error(err))
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	defer rows.Close()

	var timesheets []*entity.Timesheet
	for rows.Next() {
		ts, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		timesheets = append(timesheets, ts)
	}
	return timesheets, rows.Err()
}

// UpdateTotals writes the aggregate hour columns
func (r *TimesheetRepository) UpdateTotals(ctx context.Context, ts *entity.Timesheet) error {
	query := `
		UPDATE timesheets
		SET scheduled_hours = ?, clocked_hours = ?, payable_hours = ?, updated_at = ?
		WHERE id = ?
	`
	return r.exec(ctx, "update timesheet totals", query,
		hoursValue(ts.ScheduledHours),
		hoursValue(ts.ClockedHours),
		hoursValue(ts.PayableHours),
		ts.UpdatedAt,
		ts.ID,
	)
}

// UpdateNames refreshes the denormalized employee and location names
func (r *TimesheetRepository) UpdateNames(ctx context.Context, ts *entity.Timesheet) error {
	query := `UPDATE timesheets SET employee_name = ?, location_name = ?, updated_at = ? WHERE id = ?`
	return r.exec(ctx, "update timesheet names", query, ts.EmployeeName, ts.LocationName, ts.UpdatedAt, ts.ID)
}

// UpdateStatus moves a header between statuses conditionally
func (r *TimesheetRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.HeaderStatus) error {
	query := `UPDATE timesheets SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, string(to), time.Now(), id, string(from))
	if err != nil {
		r.logger.Error("Failed to update timesheet status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update timesheet status: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a header and, by cascade, its entries
func (r *TimesheetRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete timesheet", `DELETE FROM timesheets WHERE id = ?`, id)
}

// DeleteEmpty removes headers at the location that have no entries left
func (r *TimesheetRepository) DeleteEmpty(ctx context.Context, locationID int64) (int64, error) {
	query := `
		DELETE FROM timesheets
		WHERE location_id = ?
		  AND status != 'finalized'
		  AND NOT EXISTS (SELECT 1 FROM timesheet_entries e WHERE e.timesheet_id = timesheets.id)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, locationID)
	if err != nil {
		r.logger.Error("Failed to delete empty timesheets", zap.Int64("location_id", locationID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete empty timesheets: %w", err)
	}
	return result.RowsAffected()
}

func (r *TimesheetRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return requireAffected(result)
}

func (r *TimesheetRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entity.Timesheet, error) {
	ts, err := r.scan(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get timesheet", zap.Error(err))
		return nil, fmt.Errorf("failed to get timesheet: %w", err)
	}
	return ts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *TimesheetRepository) scan(row rowScanner) (*entity.Timesheet, error) {
	var ts entity.Timesheet
	var periodStart, periodEnd, scheduled, clocked, payable, status string

	err := row.Scan(
		&ts.ID,
		&ts.EmployeeID,
		&ts.EmployeeName,
		&ts.LocationID,
		&ts.LocationName,
		&periodStart,
		&periodEnd,
		&scheduled,
		&clocked,
		&payable,
		&status,
		&ts.CreatedAt,
		&ts.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ts.PeriodStart = scanDate(periodStart, r.loc)
	ts.PeriodEnd = scanDate(periodEnd, r.loc)
	ts.ScheduledHours = scanHours(scheduled)
	ts.ClockedHours = scanHours(clocked)
	ts.PayableHours = scanHours(payable)
	ts.Status = entity.HeaderStatus(status)
	return &ts, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrConflict
	}
	return nil
}

var _ port.TimesheetRepository = (*TimesheetRepository)(nil)

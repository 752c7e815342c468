package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const editLogColumns = `
	id, timesheet_id, entry_id, wiw_time_id, edit_type, old_value, new_value,
	user_id, user_login, user_display_name, employee_id, employee_name,
	location_id, location_name, week_start_date, created_at`

// EditLogRepository implements port.EditLogRepository
type EditLogRepository struct {
	db     *sql.DB
	loc    *time.Location
	logger *zap.Logger
}

// NewEditLogRepository creates a new edit log repository
func NewEditLogRepository(db *sql.DB, loc *time.Location, logger *zap.Logger) *EditLogRepository {
	return &EditLogRepository{
		db:     db,
		loc:    loc,
		logger: logger,
	}
}

// Append writes one audit row
func (r *EditLogRepository) Append(ctx context.Context, row *entity.EditLogRow) error {
	query := `
		INSERT INTO timesheet_edit_logs (
			timesheet_id, entry_id, wiw_time_id, edit_type, old_value, new_value,
			user_id, user_login, user_display_name, employee_id, employee_name,
			location_id, location_name, week_start_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var weekStart string
	if !row.WeekStartDate.IsZero() {
		weekStart = dateValue(row.WeekStartDate)
	}

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		row.TimesheetID,
		row.EntryID,
		row.WiwTimeID,
		row.EditType,
		row.OldValue,
		row.NewValue,
		row.UserID,
		row.UserLogin,
		row.UserDisplayName,
		row.EmployeeID,
		row.EmployeeName,
		row.LocationID,
		row.LocationName,
		weekStart,
		row.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append edit log",
			zap.Int64("timesheet_id", row.TimesheetID),
			zap.String("edit_type", row.EditType),
			zap.Error(err))
		return fmt.Errorf("failed to append edit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	row.ID = id
	return nil
}

// ListByTimesheet returns the audit trail of a header and its entries
func (r *EditLogRepository) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.EditLogRow, error) {
	return r.list(ctx, `WHERE timesheet_id = ?`, timesheetID)
}

// ListByEntry returns the audit trail of one entry
func (r *EditLogRepository) ListByEntry(ctx context.Context, entryID int64) ([]*entity.EditLogRow, error) {
	return r.list(ctx, `WHERE entry_id = ?`, entryID)
}

func (r *EditLogRepository) list(ctx context.Context, where string, args ...interface{}) ([]*entity.EditLogRow, error) {
	query := `SELECT ` + editLogColumns + ` FROM timesheet_edit_logs ` + where + ` ORDER BY created_at ASC, id ASC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list edit logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list edit logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.EditLogRow
	for rows.Next() {
		var row entity.EditLogRow
		var weekStart string
		err := rows.Scan(
			&row.ID,
			&row.TimesheetID,
			&row.EntryID,
			&row.WiwTimeID,
			&row.EditType,
			&row.OldValue,
			&row.NewValue,
			&row.UserID,
			&row.UserLogin,
			&row.UserDisplayName,
			&row.EmployeeID,
			&row.EmployeeName,
			&row.LocationID,
			&row.LocationName,
			&weekStart,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edit log: %w", err)
		}
		if weekStart != "" {
			row.WeekStartDate = scanDate(weekStart, r.loc)
		}
		logs = append(logs, &row)
	}
	return logs, rows.Err()
}

var _ port.EditLogRepository = (*EditLogRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const flagColumns = `id, wiw_time_id, flag_type, description, status, created_at, updated_at`

// FlagRepository implements port.FlagRepository
type FlagRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFlagRepository creates a new flag repository
func NewFlagRepository(db *sql.DB, logger *zap.Logger) *FlagRepository {
	return &FlagRepository{
		db:     db,
		logger: logger,
	}
}

// ListByTimeID returns the flags of one time record
func (r *FlagRepository) ListByTimeID(ctx context.Context, wiwTimeID int64) ([]*entity.Flag, error) {
	return r.ListByTimeIDs(ctx, []int64{wiwTimeID})
}

// ListByTimeIDs returns the flags of several time records. Rows whose type
// is not in the catalog are skipped.
func (r *FlagRepository) ListByTimeIDs(ctx context.Context, wiwTimeIDs []int64) ([]*entity.Flag, error) {
	if len(wiwTimeIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + flagColumns + ` FROM timesheet_flags
		WHERE wiw_time_id IN (` + placeholders(len(wiwTimeIDs)) + `)
		ORDER BY wiw_time_id, flag_type, id`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, int64Args(wiwTimeIDs)...)
	if err != nil {
		r.logger.Error("Failed to list flags", zap.Error(err))
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	var flags []*entity.Flag
	for rows.Next() {
		var f entity.Flag
		var flagType, status string
		if err := rows.Scan(&f.ID, &f.WiwTimeID, &flagType, &f.Description, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}

		t, err := flag.ParseType(flagType)
		if err != nil {
			r.logger.Warn("Skipping flag with unknown type",
				zap.Int64("id", f.ID),
				zap.String("flag_type", flagType))
			continue
		}
		f.Type = t
		f.Status = flag.Status(status)
		flags = append(flags, &f)
	}
	return flags, rows.Err()
}

// Create inserts a flag row using the canonical type code
func (r *FlagRepository) Create(ctx context.Context, f *entity.Flag) error {
	query := `
		INSERT INTO timesheet_flags (wiw_time_id, flag_type, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		f.WiwTimeID,
		f.Type.String(),
		f.Description,
		string(f.Status),
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create flag",
			zap.Int64("wiw_time_id", f.WiwTimeID),
			zap.Int("flag_type", int(f.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to create flag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	f.ID = id
	return nil
}

// UpdateStatus sets a flag's status in place
func (r *FlagRepository) UpdateStatus(ctx context.Context, id int64, status flag.Status, updatedAt time.Time) error {
	query := `UPDATE timesheet_flags SET status = ?, updated_at = ? WHERE id = ?`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, string(status), updatedAt, id)
	if err != nil {
		r.logger.Error("Failed to update flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update flag: %w", err)
	}
	return requireAffected(result)
}

// DeleteByTimeIDs purges all flags of the given time records
func (r *FlagRepository) DeleteByTimeIDs(ctx context.Context, wiwTimeIDs []int64) (int64, error) {
	if len(wiwTimeIDs) == 0 {
		return 0, nil
	}
	query := `DELETE FROM timesheet_flags WHERE wiw_time_id IN (` + placeholders(len(wiwTimeIDs)) + `)`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, int64Args(wiwTimeIDs)...)
	if err != nil {
		r.logger.Error("Failed to delete flags", zap.Error(err))
		return 0, fmt.Errorf("failed to delete flags: %w", err)
	}
	return result.RowsAffected()
}

var _ port.FlagRepository = (*FlagRepository)(nil)

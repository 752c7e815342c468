package port

import (
	"context"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// WithTransaction executes fn within a transaction carried by the context
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimesheetRepository stores pay-period headers
type TimesheetRepository interface {
	Create(ctx context.Context, ts *entity.Timesheet) error
	GetByID(ctx context.Context, id int64) (*entity.Timesheet, error)
	GetByKey(ctx context.Context, employeeID, locationID int64, periodStart time.Time) (*entity.Timesheet, error)
	List(ctx context.Context, filter entity.TimesheetFilter) ([]*entity.Timesheet, error)
	UpdateTotals(ctx context.Context, ts *entity.Timesheet) error
	UpdateNames(ctx context.Context, ts *entity.Timesheet) error
	// UpdateStatus moves the header from one status to another; ErrConflict when it is no longer in from
	UpdateStatus(ctx context.Context, id int64, from, to entity.HeaderStatus) error
	Delete(ctx context.Context, id int64) error
	// DeleteEmpty removes headers at the location with no entries
	DeleteEmpty(ctx context.Context, locationID int64) (int64, error)
}

// EntryRepository stores daily time records
type EntryRepository interface {
	Create(ctx context.Context, entry *entity.TimesheetEntry) error
	GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error)
	GetByTimeID(ctx context.Context, wiwTimeID int64) (*entity.TimesheetEntry, error)
	ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.TimesheetEntry, error)
	List(ctx context.Context, filter entity.EntryFilter) ([]*entity.TimesheetEntry, error)
	// Update writes every mutable column while the entry still has status expected
	Update(ctx context.Context, entry *entity.TimesheetEntry, expected entity.EntryStatus) error
	UpdateStatus(ctx context.Context, id int64, from, to entity.EntryStatus) error
	// ArchiveApproved archives every approved entry under the header
	ArchiveApproved(ctx context.Context, timesheetID int64) (int64, error)
	DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// FlagRepository stores anomaly flags keyed by provider time id and type
type FlagRepository interface {
	ListByTimeID(ctx context.Context, wiwTimeID int64) ([]*entity.Flag, error)
	ListByTimeIDs(ctx context.Context, wiwTimeIDs []int64) ([]*entity.Flag, error)
	Create(ctx context.Context, f *entity.Flag) error
	UpdateStatus(ctx context.Context, id int64, status flag.Status, updatedAt time.Time) error
	DeleteByTimeIDs(ctx context.Context, wiwTimeIDs []int64) (int64, error)
}

// EditLogRepository is the append-only audit ledger
type EditLogRepository interface {
	Append(ctx context.Context, row *entity.EditLogRow) error
	ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.EditLogRow, error)
	ListByEntry(ctx context.Context, entryID int64) ([]*entity.EditLogRow, error)
}

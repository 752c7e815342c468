package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/timesheet-approval/migrations"
	"github.com/garyjia/timesheet-approval/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db         *database.DB
	tx         *sqlite.DB
	loc        *time.Location
	timesheets *TimesheetRepository
	entries    *EntryRepository
	flags      *FlagRepository
	logs       *EditLogRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "ts.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrator(db, logger).Run(migrations.FS)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	return &fixture{
		db:         db,
		tx:         sqlite.NewDB(db.DB, logger),
		loc:        loc,
		timesheets: NewTimesheetRepository(db.DB, loc, logger),
		entries:    NewEntryRepository(db.DB, loc, logger),
		flags:      NewFlagRepository(db.DB, logger),
		logs:       NewEditLogRepository(db.DB, loc, logger),
	}
}

func (f *fixture) date(s string) time.Time {
	d, err := time.ParseInLocation(timemath.DateLayout, s, f.loc)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) at(s string) *time.Time {
	return timemath.ParseLocal(s, f.loc)
}

func (f *fixture) header(t *testing.T, employeeID, locationID int64) *entity.Timesheet {
	t.Helper()
	now := time.Now()
	ts := &entity.Timesheet{
		EmployeeID:   employeeID,
		EmployeeName: "Dana Reyes",
		LocationID:   locationID,
		LocationName: "Riverside",
		PeriodStart:  f.date("2025-11-30"),
		PeriodEnd:    f.date("2025-12-13"),
		Status:       entity.HeaderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.timesheets.Create(context.Background(), ts))
	return ts
}

func (f *fixture) entry(t *testing.T, ts *entity.Timesheet, timeID int64) *entity.TimesheetEntry {
	t.Helper()
	now := time.Now()
	e := &entity.TimesheetEntry{
		TimesheetID:    ts.ID,
		WiwTimeID:      timeID,
		EmployeeID:     ts.EmployeeID,
		EmployeeName:   ts.EmployeeName,
		Date:           f.date("2025-12-08"),
		ScheduledStart: f.at("2025-12-08 09:00:00"),
		ScheduledEnd:   f.at("2025-12-08 17:00:00"),
		ClockIn:        f.at("2025-12-08 08:58:00"),
		BreakMinutes:   30,
		Status:         entity.EntryPending,
		LocationID:     ts.LocationID,
		LocationName:   ts.LocationName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	e.Recompute()
	require.NoError(t, f.entries.Create(context.Background(), e))
	return e
}

func TestTimesheetRepository_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.header(t, 11, 3)

	got, err := f.timesheets.GetByKey(ctx, 11, 3, f.date("2025-11-30"))
	require.NoError(t, err)
	assert.Equal(t, ts.ID, got.ID)
	assert.Equal(t, "2025-12-13", got.PeriodEnd.Format(timemath.DateLayout))
	assert.Equal(t, entity.HeaderPending, got.Status)

	_, err = f.timesheets.GetByKey(ctx, 11, 4, f.date("2025-11-30"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTimesheetRepository_ConditionalStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.header(t, 11, 3)

	require.NoError(t, f.timesheets.UpdateStatus(ctx, ts.ID, entity.HeaderPending, entity.HeaderFinalized))
	err := f.timesheets.UpdateStatus(ctx, ts.ID, entity.HeaderPending, entity.HeaderFinalized)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEntryRepository_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.entry(t, f.header(t, 11, 3), 9001)

	got, err := f.entries.GetByTimeID(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	require.NotNil(t, got.ClockIn)
	assert.Equal(t, "2025-12-08 08:58:00", timemath.FormatLocal(got.ClockIn))
	assert.Equal(t, f.loc, got.ClockIn.Location())
	assert.Nil(t, got.ClockOut)
	assert.Equal(t, 30, got.BreakMinutes)
	assert.True(t, decimal.RequireFromString("8").Equal(got.ScheduledHours))
	assert.Equal(t, entity.ExtraTimeUnset, got.ExtraTimeStatus)
	assert.False(t, got.LocallyEdited)
}

func TestEntryRepository_ConditionalUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.entry(t, f.header(t, 11, 3), 9001)

	e.ClockOut = f.at("2025-12-08 17:03:00")
	e.LocallyEdited = true
	e.Recompute()
	require.NoError(t, f.entries.Update(ctx, e, entity.EntryPending))

	got, err := f.entries.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "7.50", got.PayableHours.StringFixed(2))
	assert.True(t, got.LocallyEdited)

	require.NoError(t, f.entries.UpdateStatus(ctx, e.ID, entity.EntryPending, entity.EntryApproved))
	assert.ErrorIs(t, f.entries.Update(ctx, e, entity.EntryPending), apperr.ErrConflict)
	assert.ErrorIs(t, f.entries.UpdateStatus(ctx, e.ID, entity.EntryPending, entity.EntryApproved), apperr.ErrConflict)
}

func TestEntryRepository_ListAndArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.header(t, 11, 3)
	a := f.entry(t, ts, 1)
	f.entry(t, ts, 2)

	require.NoError(t, f.entries.UpdateStatus(ctx, a.ID, entity.EntryPending, entity.EntryApproved))

	cutoff := f.date("2025-12-09")
	pending, err := f.entries.List(ctx, entity.EntryFilter{Status: entity.EntryPending, DateBefore: &cutoff})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	archived, err := f.entries.ArchiveApproved(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), archived)

	got, err := f.entries.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EntryArchived, got.Status)
}

func TestTimesheetRepository_DeleteEmptyIsLocationScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := f.header(t, 11, 3)
	other := f.header(t, 12, 4)
	withEntries := f.header(t, 13, 3)
	f.entry(t, withEntries, 1)

	n, err := f.timesheets.DeleteEmpty(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.timesheets.GetByID(ctx, empty.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.timesheets.GetByID(ctx, other.ID)
	assert.NoError(t, err)
	_, err = f.timesheets.GetByID(ctx, withEntries.ID)
	assert.NoError(t, err)
}

func TestFlagRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	fl := &entity.Flag{
		WiwTimeID:   77,
		Type:        flag.TypeMissingClockOut,
		Description: flag.TypeMissingClockOut.Description(),
		Status:      flag.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.flags.Create(ctx, fl))

	dup := *fl
	assert.Error(t, f.flags.Create(ctx, &dup), "one row per time record and type")

	// legacy suffixed and unknown rows
	_, err := f.db.Exec(`INSERT INTO timesheet_flags (wiw_time_id, flag_type, description, status, created_at, updated_at)
		VALUES (77, '107-additional', 'legacy', 'active', ?, ?), (77, '999', 'bogus', 'active', ?, ?)`, now, now, now, now)
	require.NoError(t, err)

	flags, err := f.flags.ListByTimeID(ctx, 77)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, flag.TypeMissingClockOut, flags[0].Type)
	assert.Equal(t, flag.TypeUnconfirmedExtra, flags[1].Type)

	require.NoError(t, f.flags.UpdateStatus(ctx, fl.ID, flag.StatusResolved, now))
	flags, err = f.flags.ListByTimeID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, flag.StatusResolved, flags[0].Status)

	n, err := f.flags.DeleteByTimeIDs(ctx, []int64{77})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestEditLogRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row := &entity.EditLogRow{
		TimesheetID:     5,
		EntryID:         9,
		WiwTimeID:       9001,
		EditType:        entity.EditClockOut,
		OldValue:        "",
		NewValue:        "2025-12-08 17:00:00",
		UserDisplayName: entity.AutoApprover.DisplayName,
		WeekStartDate:   f.date("2025-12-07"),
		CreatedAt:       time.Now(),
	}
	require.NoError(t, f.logs.Append(ctx, row))
	assert.NotZero(t, row.ID)

	rows, err := f.logs.ListByTimesheet(ctx, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Automatically Approved", rows[0].UserDisplayName)
	assert.Equal(t, "2025-12-07", rows[0].WeekStartDate.Format(timemath.DateLayout))

	rows, err = f.logs.ListByEntry(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestTransactionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.header(t, 11, 3)

	err := f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		e := &entity.TimesheetEntry{
			TimesheetID: ts.ID,
			WiwTimeID:   4242,
			EmployeeID:  ts.EmployeeID,
			Date:        f.date("2025-12-08"),
			Status:      entity.EntryPending,
			LocationID:  ts.LocationID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		require.NoError(t, f.entries.Create(txCtx, e))
		return apperr.ErrConflict
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.entries.GetByTimeID(ctx, 4242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

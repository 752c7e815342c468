// Package memstore is an in-memory TimeRecordStore. It mirrors the sqlite
// repositories closely enough for service tests and offline dry imports:
// unique keys, conditional updates, header cascade and rollback on error.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
)

// Store holds every table in maps keyed by id
type Store struct {
	mu         sync.Mutex
	nextID     int64
	timesheets map[int64]entity.Timesheet
	entries    map[int64]*entity.TimesheetEntry
	flags      map[int64]entity.Flag
	logs       []entity.EditLogRow

	// Fault injection for derived writes
	FlagErr error
	LogErr  error
}

// New creates an empty store
func New() *Store {
	return &Store{
		timesheets: make(map[int64]entity.Timesheet),
		entries:    make(map[int64]*entity.TimesheetEntry),
		flags:      make(map[int64]entity.Flag),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Timesheets returns the header repository view
func (s *Store) Timesheets() port.TimesheetRepository { return timesheetRepo{s} }

// Entries returns the entry repository view
func (s *Store) Entries() port.EntryRepository { return entryRepo{s} }

// Flags returns the flag repository view
func (s *Store) Flags() port.FlagRepository { return flagRepo{s} }

// EditLogs returns the edit log repository view
func (s *Store) EditLogs() port.EditLogRepository { return editLogRepo{s} }

// WithTransaction snapshots the store and restores it when fn fails
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	nextID     int64
	timesheets map[int64]entity.Timesheet
	entries    map[int64]*entity.TimesheetEntry
	flags      map[int64]entity.Flag
	logs       int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		nextID:     s.nextID,
		timesheets: make(map[int64]entity.Timesheet, len(s.timesheets)),
		entries:    make(map[int64]*entity.TimesheetEntry, len(s.entries)),
		flags:      make(map[int64]entity.Flag, len(s.flags)),
		logs:       len(s.logs),
	}
	for k, v := range s.timesheets {
		snap.timesheets[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = v.Clone()
	}
	for k, v := range s.flags {
		snap.flags[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.timesheets = snap.timesheets
	s.entries = snap.entries
	s.flags = snap.flags
	s.logs = s.logs[:snap.logs]
}

// AllEntries returns a copy of every entry ordered by id
func (s *Store) AllEntries() []*entity.TimesheetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.TimesheetEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllFlags returns a copy of every flag ordered by id
func (s *Store) AllFlags() []entity.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Flag, 0, len(s.flags))
	for _, f := range s.flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllLogs returns a copy of the edit log in append order
func (s *Store) AllLogs() []entity.EditLogRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.EditLogRow(nil), s.logs...)
}

type timesheetRepo struct{ s *Store }

func (r timesheetRepo) Create(ctx context.Context, ts *entity.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.timesheets {
		if existing.EmployeeID == ts.EmployeeID && existing.LocationID == ts.LocationID && sameDay(existing.PeriodStart, ts.PeriodStart) {
			return fmt.Errorf("failed to create timesheet: duplicate key")
		}
	}
	ts.ID = r.s.id()
	r.s.timesheets[ts.ID] = *ts
	return nil
}

func (r timesheetRepo) GetByID(ctx context.Context, id int64) (*entity.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.timesheets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &ts, nil
}

func (r timesheetRepo) GetByKey(ctx context.Context, employeeID, locationID int64, periodStart time.Time) (*entity.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ts := range r.s.timesheets {
		if ts.EmployeeID == employeeID && ts.LocationID == locationID && sameDay(ts.PeriodStart, periodStart) {
			found := ts
			return &found, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r timesheetRepo) List(ctx context.Context, filter entity.TimesheetFilter) ([]*entity.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Timesheet
	for _, ts := range r.s.timesheets {
		if filter.LocationID != 0 && ts.LocationID != filter.LocationID {
			continue
		}
		if filter.EmployeeID != 0 && ts.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && ts.Status != filter.Status {
			continue
		}
		if filter.PeriodStart != nil && !sameDay(ts.PeriodStart, *filter.PeriodStart) {
			continue
		}
		found := ts
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.After(out[j].PeriodStart)
		}
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, nil
}

func (r timesheetRepo) update(id int64, fn func(ts *entity.Timesheet) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.timesheets[id]
	if !ok {
		return apperr.ErrConflict
	}
	if err := fn(&ts); err != nil {
		return err
	}
	r.s.timesheets[id] = ts
	return nil
}

func (r timesheetRepo) UpdateTotals(ctx context.Context, ts *entity.Timesheet) error {
	return r.update(ts.ID, func(stored *entity.Timesheet) error {
		stored.ScheduledHours = ts.ScheduledHours
		stored.ClockedHours = ts.ClockedHours
		stored.PayableHours = ts.PayableHours
		stored.UpdatedAt = ts.UpdatedAt
		return nil
	})
}

func (r timesheetRepo) UpdateNames(ctx context.Context, ts *entity.Timesheet) error {
	return r.update(ts.ID, func(stored *entity.Timesheet) error {
		stored.EmployeeName = ts.EmployeeName
		stored.LocationName = ts.LocationName
		stored.UpdatedAt = ts.UpdatedAt
		return nil
	})
}

func (r timesheetRepo) UpdateStatus(ctx context.Context, id int64, from, to entity.HeaderStatus) error {
	return r.update(id, func(stored *entity.Timesheet) error {
		if stored.Status != from {
			return apperr.ErrConflict
		}
		stored.Status = to
		stored.UpdatedAt = time.Now()
		return nil
	})
}

func (r timesheetRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.timesheets[id]; !ok {
		return apperr.ErrConflict
	}
	delete(r.s.timesheets, id)
	for eid, e := range r.s.entries {
		if e.TimesheetID == id {
			delete(r.s.entries, eid)
		}
	}
	return nil
}

func (r timesheetRepo) DeleteEmpty(ctx context.Context, locationID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	used := make(map[int64]bool)
	for _, e := range r.s.entries {
		used[e.TimesheetID] = true
	}
	var n int64
	for id, ts := range r.s.timesheets {
		if ts.LocationID != locationID || ts.Status == entity.HeaderFinalized || used[id] {
			continue
		}
		delete(r.s.timesheets, id)
		n++
	}
	return n, nil
}

type entryRepo struct{ s *Store }

func (r entryRepo) Create(ctx context.Context, e *entity.TimesheetEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.timesheets[e.TimesheetID]; !ok {
		return fmt.Errorf("failed to create entry: unknown timesheet %d", e.TimesheetID)
	}
	for _, existing := range r.s.entries {
		if existing.WiwTimeID == e.WiwTimeID {
			return fmt.Errorf("failed to create entry: duplicate time record %d", e.WiwTimeID)
		}
	}
	e.ID = r.s.id()
	r.s.entries[e.ID] = e.Clone()
	return nil
}

func (r entryRepo) GetByID(ctx context.Context, id int64) (*entity.TimesheetEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return e.Clone(), nil
}

func (r entryRepo) GetByTimeID(ctx context.Context, wiwTimeID int64) (*entity.TimesheetEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.WiwTimeID == wiwTimeID {
			return e.Clone(), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r entryRepo) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.TimesheetEntry, error) {
	return r.List(ctx, entity.EntryFilter{TimesheetID: timesheetID})
}

func (r entryRepo) List(ctx context.Context, filter entity.EntryFilter) ([]*entity.TimesheetEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TimesheetEntry
	for _, e := range r.s.entries {
		if filter.TimesheetID != 0 && e.TimesheetID != filter.TimesheetID {
			continue
		}
		if filter.LocationID != 0 && e.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.DateBefore != nil && !dayBefore(e.Date, *filter.DateBefore) {
			continue
		}
		if filter.DateFrom != nil && dayBefore(e.Date, *filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && dayBefore(*filter.DateTo, e.Date) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !sameDay(out[i].Date, out[j].Date) {
			return dayBefore(out[i].Date, out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r entryRepo) Update(ctx context.Context, e *entity.TimesheetEntry, expected entity.EntryStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.entries[e.ID]
	if !ok || stored.Status != expected {
		return apperr.ErrConflict
	}
	updated := e.Clone()
	updated.Status = stored.Status
	updated.WiwTimeID = stored.WiwTimeID
	updated.CreatedAt = stored.CreatedAt
	r.s.entries[e.ID] = updated
	return nil
}

func (r entryRepo) UpdateStatus(ctx context.Context, id int64, from, to entity.EntryStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.entries[id]
	if !ok || stored.Status != from {
		return apperr.ErrConflict
	}
	stored.Status = to
	stored.UpdatedAt = time.Now()
	return nil
}

func (r entryRepo) ArchiveApproved(ctx context.Context, timesheetID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, e := range r.s.entries {
		if e.TimesheetID == timesheetID && e.Status == entity.EntryApproved {
			e.Status = entity.EntryArchived
			e.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (r entryRepo) DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.entries {
		if e.TimesheetID == timesheetID {
			delete(r.s.entries, id)
			n++
		}
	}
	return n, nil
}

func (r entryRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entries[id]; !ok {
		return apperr.ErrConflict
	}
	delete(r.s.entries, id)
	return nil
}

type flagRepo struct{ s *Store }

func (r flagRepo) ListByTimeID(ctx context.Context, wiwTimeID int64) ([]*entity.Flag, error) {
	return r.ListByTimeIDs(ctx, []int64{wiwTimeID})
}

func (r flagRepo) ListByTimeIDs(ctx context.Context, wiwTimeIDs []int64) ([]*entity.Flag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int64]bool, len(wiwTimeIDs))
	for _, id := range wiwTimeIDs {
		want[id] = true
	}
	var out []*entity.Flag
	for _, f := range r.s.flags {
		if want[f.WiwTimeID] {
			found := f
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WiwTimeID != out[j].WiwTimeID {
			return out[i].WiwTimeID < out[j].WiwTimeID
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (r flagRepo) Create(ctx context.Context, f *entity.Flag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FlagErr != nil {
		return r.s.FlagErr
	}
	for _, existing := range r.s.flags {
		if existing.WiwTimeID == f.WiwTimeID && existing.Type == f.Type {
			return fmt.Errorf("failed to create flag: duplicate (%d, %d)", f.WiwTimeID, f.Type)
		}
	}
	f.ID = r.s.id()
	r.s.flags[f.ID] = *f
	return nil
}

func (r flagRepo) UpdateStatus(ctx context.Context, id int64, status flag.Status, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FlagErr != nil {
		return r.s.FlagErr
	}
	f, ok := r.s.flags[id]
	if !ok {
		return apperr.ErrConflict
	}
	f.Status = status
	f.UpdatedAt = updatedAt
	r.s.flags[id] = f
	return nil
}

func (r flagRepo) DeleteByTimeIDs(ctx context.Context, wiwTimeIDs []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int64]bool, len(wiwTimeIDs))
	for _, id := range wiwTimeIDs {
		want[id] = true
	}
	var n int64
	for id, f := range r.s.flags {
		if want[f.WiwTimeID] {
			delete(r.s.flags, id)
			n++
		}
	}
	return n, nil
}

type editLogRepo struct{ s *Store }

func (r editLogRepo) Append(ctx context.Context, row *entity.EditLogRow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LogErr != nil {
		return r.s.LogErr
	}
	row.ID = r.s.id()
	r.s.logs = append(r.s.logs, *row)
	return nil
}

func (r editLogRepo) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*entity.EditLogRow, error) {
	return r.list(func(row entity.EditLogRow) bool { return row.TimesheetID == timesheetID }), nil
}

func (r editLogRepo) ListByEntry(ctx context.Context, entryID int64) ([]*entity.EditLogRow, error) {
	return r.list(func(row entity.EditLogRow) bool { return row.EntryID == entryID }), nil
}

func (r editLogRepo) list(match func(entity.EditLogRow) bool) []*entity.EditLogRow {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.EditLogRow
	for _, row := range r.s.logs {
		if match(row) {
			found := row
			out = append(out, &found)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func dayBefore(a, b time.Time) bool {
	return a.Format("2006-01-02") < b.Format("2006-01-02")
}

var (
	_ port.TransactionManager  = (*Store)(nil)
	_ port.TimesheetRepository = timesheetRepo{}
	_ port.EntryRepository     = entryRepo{}
	_ port.FlagRepository      = flagRepo{}
	_ port.EditLogRepository   = editLogRepo{}
)

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/google/uuid"
)

// SyncOptions scopes one batch ingestion
type SyncOptions struct {
	// Prune deletes local entries at LocationID dated inside the window
	// whose time record is absent from the batch, then empty headers there.
	Prune       bool
	LocationID  int64
	WindowStart time.Time
	WindowEnd   time.Time
}

// SyncResult counts what one batch did
type SyncResult struct {
	RunID          string   `json:"run_id"`
	Processed      int      `json:"processed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Unchanged      int      `json:"unchanged"`
	Preserved      int      `json:"preserved"`
	Locked         int      `json:"locked"`
	Skipped        int      `json:"skipped"`
	SkipReasons    []string `json:"skip_reasons,omitempty"`
	Pruned         int      `json:"pruned"`
	HeadersCreated int      `json:"headers_created"`
	HeadersDeleted int64    `json:"headers_deleted"`
	Warnings       []string `json:"warnings,omitempty"`
}

// SyncService ingests scheduling provider time records
type SyncService interface {
	// SyncBatch upserts a batch that has already been fetched
	SyncBatch(ctx context.Context, batch *port.ProviderBatch, opts SyncOptions) (*SyncResult, error)

	// SyncLocation fetches one location's window and prunes stale entries there
	SyncLocation(ctx context.Context, locationID int64, start, end time.Time) (*SyncResult, error)

	// SyncWindow fetches every location's window without pruning
	SyncWindow(ctx context.Context, start, end time.Time) (*SyncResult, error)
}

type syncServiceImpl struct {
	txManager     port.TransactionManager
	timesheetRepo port.TimesheetRepository
	entryRepo     port.EntryRepository
	flags         FlagService
	logs          EditLogWriter
	headers       *headerRefresher
	provider      port.SchedulingProvider
	calendar      *period.Calendar
	clock         port.Clock
	logger        Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(deps Deps) SyncService {
	return &syncServiceImpl{
		txManager:     deps.TxManager,
		timesheetRepo: deps.Timesheets,
		entryRepo:     deps.Entries,
		flags:         deps.flagService(),
		logs:          deps.editLogWriter(),
		headers:       deps.headerRefresher(),
		provider:      deps.Provider,
		calendar:      deps.Calendar,
		clock:         deps.Clock,
		logger:        deps.logger(),
	}
}

func (s *syncServiceImpl) SyncLocation(ctx context.Context, locationID int64, start, end time.Time) (*SyncResult, error) {
	batch, err := s.fetch(ctx, port.ProviderQuery{Start: start, End: end, LocationID: locationID})
	if err != nil {
		return nil, err
	}
	return s.SyncBatch(ctx, batch, SyncOptions{
		Prune:       true,
		LocationID:  locationID,
		WindowStart: start,
		WindowEnd:   end,
	})
}

func (s *syncServiceImpl) SyncWindow(ctx context.Context, start, end time.Time) (*SyncResult, error) {
	batch, err := s.fetch(ctx, port.ProviderQuery{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return s.SyncBatch(ctx, batch, SyncOptions{WindowStart: start, WindowEnd: end})
}

func (s *syncServiceImpl) fetch(ctx context.Context, q port.ProviderQuery) (*port.ProviderBatch, error) {
	if s.provider == nil {
		return nil, apperr.NewUpstream("fetch times", errors.New(MsgProviderNotAvailable))
	}
	batch, err := s.provider.FetchTimes(ctx, q)
	if err != nil {
		s.logger.Error("Provider fetch failed", "error", err, "location_id", q.LocationID)
		return nil, apperr.NewUpstream("fetch times", err)
	}
	return batch, nil
}

func (s *syncServiceImpl) SyncBatch(ctx context.Context, batch *port.ProviderBatch, opts SyncOptions) (*SyncResult, error) {
	if opts.Prune && opts.LocationID == 0 {
		return nil, apperr.NewValidation("location_id", MsgPruneNeedsLocation)
	}

	result := &SyncResult{RunID: uuid.NewString()}
	if batch == nil {
		batch = &port.ProviderBatch{}
	}
	idx := newBatchIndex(batch)
	touched := make(map[int64]bool)
	seen := make(map[int64]bool, len(batch.Times))

	for _, rec := range batch.Times {
		result.Processed++

		in, reason := s.resolve(rec, idx)
		if reason != "" {
			result.Skipped++
			result.SkipReasons = append(result.SkipReasons, fmt.Sprintf("time record %d: %s", rec.ID, reason))
			s.logger.Warn("Skipping provider time record", "wiw_time_id", rec.ID, "reason", reason)
			continue
		}
		seen[in.WiwTimeID] = true

		out, err := s.upsert(ctx, in)
		if err != nil {
			s.logger.Error("Failed to upsert time record", "error", err, "wiw_time_id", in.WiwTimeID)
			return result, fmt.Errorf("sync time record %d: %w", in.WiwTimeID, err)
		}
		s.record(ctx, out, result, touched)
	}

	if opts.Prune {
		if err := s.prune(ctx, opts, seen, result, touched); err != nil {
			return result, err
		}
	}

	ids := make([]int64, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := s.headers.Refresh(ctx, id); err != nil {
			result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningTotals, id, err))
		}
	}

	s.logger.Info("Sync batch complete",
		"run_id", result.RunID,
		"processed", result.Processed,
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"locked", result.Locked,
		"skipped", result.Skipped,
		"pruned", result.Pruned)
	return result, nil
}

type upsertKind int

const (
	upsertCreated upsertKind = iota
	upsertUpdated
	upsertUnchanged
	upsertLocked
)

type upsertOutcome struct {
	kind          upsertKind
	before        *entity.TimesheetEntry
	entry         *entity.TimesheetEntry
	headerIDs     []int64
	headerCreated bool
	preserved     bool
}

// upsert writes one time record in its own transaction
func (s *syncServiceImpl) upsert(ctx context.Context, in *entity.TimesheetEntry) (*upsertOutcome, error) {
	out := &upsertOutcome{}
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.entryRepo.GetByTimeID(txCtx, in.WiwTimeID)
		if errors.Is(err, apperr.ErrNotFound) {
			return s.insert(txCtx, in, out)
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return s.refresh(txCtx, existing, in, out)
	})
	return out, err
}

func (s *syncServiceImpl) insert(ctx context.Context, in *entity.TimesheetEntry, out *upsertOutcome) error {
	ts, created, err := s.headerFor(ctx, in)
	if err != nil {
		return err
	}
	if ts.Status.IsLocked() {
		out.kind = upsertLocked
		return nil
	}

	now := s.clock.Now()
	e := in.Clone()
	e.TimesheetID = ts.ID
	e.Status = entity.EntryPending
	e.ExtraTimeStatus = entity.ExtraTimeUnset
	e.Recompute()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.entryRepo.Create(ctx, e); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	out.kind = upsertCreated
	out.entry = e
	out.headerIDs = []int64{ts.ID}
	out.headerCreated = created
	return nil
}

func (s *syncServiceImpl) refresh(ctx context.Context, existing, in *entity.TimesheetEntry, out *upsertOutcome) error {
	current, err := s.timesheetRepo.GetByID(ctx, existing.TimesheetID)
	if err != nil {
		return fmt.Errorf("get timesheet: %w", err)
	}
	if current.Status.IsLocked() || existing.Status == entity.EntryArchived {
		out.kind = upsertLocked
		return nil
	}

	next := existing.Clone()
	next.WiwShiftID = in.WiwShiftID
	next.EmployeeName = in.EmployeeName
	next.LocationID = in.LocationID
	next.LocationName = in.LocationName
	next.ScheduledStart = in.ScheduledStart
	next.ScheduledEnd = in.ScheduledEnd
	next.ScheduledBreakMinutes = in.ScheduledBreakMinutes
	if existing.LocallyEdited {
		out.preserved = timemath.FormatLocal(existing.ClockIn) != timemath.FormatLocal(in.ClockIn) ||
			timemath.FormatLocal(existing.ClockOut) != timemath.FormatLocal(in.ClockOut) ||
			existing.BreakMinutes != in.BreakMinutes
	} else {
		next.ClockIn = in.ClockIn
		next.ClockOut = in.ClockOut
		next.BreakMinutes = in.BreakMinutes
		next.Date = in.Date
	}

	target, created, err := s.headerFor(ctx, next)
	if err != nil {
		return err
	}
	if target.Status.IsLocked() {
		out.kind = upsertLocked
		return nil
	}
	next.TimesheetID = target.ID
	next.Recompute()
	// a decision only covers the additional hours it was made on
	if existing.ExtraTimeStatus.IsDecided() && !next.AdditionalHours.Equal(existing.AdditionalHours) {
		next.ExtraTimeStatus = entity.ExtraTimeUnset
		next.Recompute()
	}

	out.headerCreated = created
	out.headerIDs = []int64{existing.TimesheetID}
	if target.ID != existing.TimesheetID {
		out.headerIDs = append(out.headerIDs, target.ID)
	}

	if sameEntry(existing, next) {
		out.kind = upsertUnchanged
		out.entry = existing
		return nil
	}

	next.UpdatedAt = s.clock.Now()
	if err := s.entryRepo.Update(ctx, next, existing.Status); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	out.kind = upsertUpdated
	out.before = existing
	out.entry = next
	return nil
}

// headerFor finds or creates the header for the entry's employee, location
// and pay period
func (s *syncServiceImpl) headerFor(ctx context.Context, e *entity.TimesheetEntry) (*entity.Timesheet, bool, error) {
	p := s.calendar.Bucket(e.Date)

	ts, err := s.timesheetRepo.GetByKey(ctx, e.EmployeeID, e.LocationID, p.Start)
	if err == nil {
		if !ts.Status.IsLocked() && (ts.EmployeeName != e.EmployeeName || ts.LocationName != e.LocationName) {
			ts.EmployeeName = e.EmployeeName
			ts.LocationName = e.LocationName
			ts.UpdatedAt = s.clock.Now()
			if err := s.timesheetRepo.UpdateNames(ctx, ts); err != nil {
				return nil, false, fmt.Errorf("update timesheet names: %w", err)
			}
		}
		return ts, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, fmt.Errorf("get timesheet: %w", err)
	}

	now := s.clock.Now()
	ts = &entity.Timesheet{
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		LocationID:   e.LocationID,
		LocationName: e.LocationName,
		PeriodStart:  p.Start,
		PeriodEnd:    p.End,
		Status:       entity.HeaderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.timesheetRepo.Create(ctx, ts); err != nil {
		return nil, false, fmt.Errorf("create timesheet: %w", err)
	}
	return ts, true, nil
}

// record applies counts and derived writes for one committed upsert
func (s *syncServiceImpl) record(ctx context.Context, out *upsertOutcome, result *SyncResult, touched map[int64]bool) {
	if out.preserved {
		result.Preserved++
	}
	if out.headerCreated {
		result.HeadersCreated++
	}
	for _, id := range out.headerIDs {
		touched[id] = true
	}

	var rows []*entity.EditLogRow
	switch out.kind {
	case upsertLocked:
		result.Locked++
		return
	case upsertCreated:
		result.Created++
		rows = append(rows, s.logs.EntryRow(entity.ProviderSync, out.entry, entity.EditImportedTimeRecord, "", importedValue(out.entry)))
	case upsertUpdated:
		result.Updated++
		rows = s.logs.DiffRows(entity.ProviderSync, out.before, out.entry)
	case upsertUnchanged:
		result.Unchanged++
	}

	if err := s.logs.Append(ctx, rows...); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningEditLog, out.entry.WiwTimeID, err))
	}
	if _, err := s.flags.Reconcile(ctx, out.entry); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningFlags, out.entry.WiwTimeID, err))
	}
}

// prune deletes unlocked local entries at the location that the provider
// no longer reports inside the window. Flags are left for reset to purge.
func (s *syncServiceImpl) prune(ctx context.Context, opts SyncOptions, seen map[int64]bool, result *SyncResult, touched map[int64]bool) error {
	loc := s.clock.Location()
	from := period.Date(opts.WindowStart, loc)
	to := period.Date(opts.WindowEnd, loc)

	entries, err := s.entryRepo.List(ctx, entity.EntryFilter{LocationID: opts.LocationID, DateFrom: &from, DateTo: &to})
	if err != nil {
		return fmt.Errorf("list entries to prune: %w", err)
	}

	headers := make(map[int64]*entity.Timesheet)
	for _, e := range entries {
		if seen[e.WiwTimeID] || e.Status == entity.EntryArchived {
			continue
		}
		ts, ok := headers[e.TimesheetID]
		if !ok {
			ts, err = s.timesheetRepo.GetByID(ctx, e.TimesheetID)
			if err != nil {
				return fmt.Errorf("get timesheet: %w", err)
			}
			headers[e.TimesheetID] = ts
		}
		if ts.Status.IsLocked() {
			continue
		}

		if err := s.entryRepo.Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("delete stale entry %d: %w", e.ID, err)
		}
		result.Pruned++
		touched[e.TimesheetID] = true
		s.logger.Info("Removed stale time record", "wiw_time_id", e.WiwTimeID, "location_id", opts.LocationID)
	}

	n, err := s.timesheetRepo.DeleteEmpty(ctx, opts.LocationID)
	if err != nil {
		return fmt.Errorf("delete empty timesheets: %w", err)
	}
	result.HeadersDeleted = n
	return nil
}

// resolve turns a provider record into an unsaved entry, or returns the
// reason it cannot be ingested
func (s *syncServiceImpl) resolve(rec port.ProviderTime, idx *batchIndex) (*entity.TimesheetEntry, string) {
	if rec.ID <= 0 {
		return nil, "missing time record id"
	}
	if rec.UserID <= 0 {
		return nil, "missing user id"
	}

	loc := s.clock.Location()
	clockIn, ok := parseProviderTime(rec.StartTime, loc)
	if !ok {
		return nil, "unparsable start_time " + rec.StartTime
	}
	clockOut, ok := parseProviderTime(rec.EndTime, loc)
	if !ok {
		return nil, "unparsable end_time " + rec.EndTime
	}

	e := &entity.TimesheetEntry{
		WiwTimeID:  rec.ID,
		WiwShiftID: rec.ShiftID,
		EmployeeID: rec.UserID,
		ClockIn:    clockIn,
		ClockOut:   clockOut,
	}
	if rec.BreakMinutes != nil {
		if *rec.BreakMinutes < 0 {
			return nil, "negative break minutes"
		}
		e.BreakMinutes = *rec.BreakMinutes
	}

	siteID := rec.SiteID
	if shift, ok := idx.shifts[rec.ShiftID]; ok && rec.ShiftID != 0 {
		start, okStart := parseProviderTime(shift.StartTime, loc)
		end, okEnd := parseProviderTime(shift.EndTime, loc)
		if !okStart || !okEnd {
			return nil, fmt.Sprintf("unparsable times on shift %d", shift.ID)
		}
		e.ScheduledStart = start
		e.ScheduledEnd = end
		if shift.BreakMinutes > 0 {
			e.ScheduledBreakMinutes = shift.BreakMinutes
		}
		if shift.SiteID != 0 {
			siteID = shift.SiteID
		}
	}

	anchor := e.ClockIn
	if anchor == nil {
		anchor = e.ScheduledStart
	}
	if anchor == nil {
		return nil, "no clock in and no scheduled start"
	}
	e.Date = period.Date(*anchor, loc)
	e.LocationID = siteID
	e.LocationName = idx.siteName(siteID)
	e.EmployeeName = idx.userName(rec.UserID)
	return e, ""
}

var providerLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseProviderTime reads a provider timestamp (UTC unless it carries an
// offset) into loc. Blank is absent and ok.
func parseProviderTime(s string, loc *time.Location) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range providerLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			local := t.In(loc).Truncate(time.Second)
			return &local, true
		}
	}
	return nil, false
}

type batchIndex struct {
	shifts map[int64]port.ProviderShift
	sites  map[int64]port.ProviderSite
	users  map[int64]port.ProviderUser
}

func newBatchIndex(batch *port.ProviderBatch) *batchIndex {
	idx := &batchIndex{
		shifts: make(map[int64]port.ProviderShift, len(batch.Shifts)),
		sites:  make(map[int64]port.ProviderSite, len(batch.Sites)),
		users:  make(map[int64]port.ProviderUser, len(batch.Users)),
	}
	for _, sh := range batch.Shifts {
		idx.shifts[sh.ID] = sh
	}
	for _, site := range batch.Sites {
		idx.sites[site.ID] = site
	}
	for _, u := range batch.Users {
		idx.users[u.ID] = u
	}
	return idx
}

func (idx *batchIndex) siteName(id int64) string {
	if id == 0 {
		return "Unassigned"
	}
	if site, ok := idx.sites[id]; ok && strings.TrimSpace(site.Name) != "" {
		return strings.TrimSpace(site.Name)
	}
	return fmt.Sprintf("Location %d", id)
}

func (idx *batchIndex) userName(id int64) string {
	if u, ok := idx.users[id]; ok {
		if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Employee %d", id)
}

func sameEntry(a, b *entity.TimesheetEntry) bool {
	return len(DiffEntries(a, b)) == 0 &&
		a.TimesheetID == b.TimesheetID &&
		a.WiwShiftID == b.WiwShiftID &&
		a.EmployeeName == b.EmployeeName &&
		a.LocationID == b.LocationID &&
		a.LocationName == b.LocationName &&
		a.ScheduledBreakMinutes == b.ScheduledBreakMinutes &&
		dateText(a.Date) == dateText(b.Date)
}

func importedValue(e *entity.TimesheetEntry) string {
	return fmt.Sprintf("%s to %s", orNA(timemath.FormatLocal(e.ClockIn)), orNA(timemath.FormatLocal(e.ClockOut)))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

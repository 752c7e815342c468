package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/garyjia/timesheet-approval/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// EditRequest carries optional replacements for an entry's clock fields.
// A nil field is left alone; an empty clock string clears it.
type EditRequest struct {
	ClockIn      *string `json:"clock_in"`
	ClockOut     *string `json:"clock_out"`
	BreakMinutes *MinutesInput `json:"break_minutes"`
}

// MinutesInput is a whole number of minutes given as a JSON number or a
// decimal string. Any other JSON value is kept verbatim and rejected when
// the edit is validated.
type MinutesInput string

// UnmarshalJSON implements json.Unmarshaler
func (m *MinutesInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MinutesInput(s)
		return nil
	}
	*m = MinutesInput(bytes.TrimSpace(data))
	return nil
}

// Decision settles an entry's additional time
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionDeny    Decision = "deny"
)

// CommandResult is returned by every successful command
type CommandResult struct {
	Entry     *entity.TimesheetEntry `json:"entry,omitempty"`
	Timesheet *entity.Timesheet      `json:"timesheet,omitempty"`
	Changed   bool                   `json:"changed"`
	Flags     FlagResult             `json:"flags"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// ResetResult describes a reset and the resync that followed it
type ResetResult struct {
	Timesheet      *entity.Timesheet `json:"timesheet"`
	DeletedEntries int64             `json:"deleted_entries"`
	PurgedFlags    int64             `json:"purged_flags"`
	Sync           *SyncResult       `json:"sync"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// ApprovalService runs the approval commands for entries and timesheets
type ApprovalService interface {
	ApproveEntry(ctx context.Context, actor entity.Actor, entryID int64) (*CommandResult, error)
	UnapproveEntry(ctx context.Context, actor entity.Actor, entryID int64) (*CommandResult, error)
	EditEntry(ctx context.Context, actor entity.Actor, entryID int64, req EditRequest) (*CommandResult, error)
	DecideExtraTime(ctx context.Context, actor entity.Actor, wiwTimeID int64, decision Decision) (*CommandResult, error)
	FinalizeTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*CommandResult, error)
	ResetTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*ResetResult, error)
}

type approvalServiceImpl struct {
	txManager     port.TransactionManager
	timesheetRepo port.TimesheetRepository
	entryRepo     port.EntryRepository
	flagRepo      port.FlagRepository
	flags         FlagService
	logs          EditLogWriter
	headers       *headerRefresher
	provider      port.SchedulingProvider
	sync          SyncService
	clock         port.Clock
	logger        Logger
}

// NewApprovalService creates a new ApprovalService. Reset resynchronizes
// through sync.
func NewApprovalService(deps Deps, sync SyncService) ApprovalService {
	return &approvalServiceImpl{
		txManager:     deps.TxManager,
		timesheetRepo: deps.Timesheets,
		entryRepo:     deps.Entries,
		flagRepo:      deps.Flags,
		flags:         deps.flagService(),
		logs:          deps.editLogWriter(),
		headers:       deps.headerRefresher(),
		provider:      deps.Provider,
		sync:          sync,
		clock:         deps.Clock,
		logger:        deps.logger(),
	}
}

// ApproveEntry approves a pending entry. Approving an approved entry is a no-op.
func (s *approvalServiceImpl) ApproveEntry(ctx context.Context, actor entity.Actor, entryID int64) (*CommandResult, error) {
	e, ts, err := s.loadEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if ts.Status.IsLocked() {
		return nil, apperr.NewPrecondition(MsgLocked)
	}

	changed, err := fireEntry(ctx, e, workflow.TriggerApprove, MsgLocked)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &CommandResult{Entry: e, Timesheet: ts}, nil
	}

	return s.changeStatus(ctx, actor, e, entity.EntryApproved, entity.EditApprovedTimeRecord)
}

// UnapproveEntry returns an approved entry to pending
func (s *approvalServiceImpl) UnapproveEntry(ctx context.Context, actor entity.Actor, entryID int64) (*CommandResult, error) {
	if !actor.IsAdmin() {
		return nil, apperr.NewPrecondition(MsgAdminOnlyUnapprove)
	}
	e, ts, err := s.loadEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if ts.Status.IsLocked() {
		return nil, apperr.NewPrecondition(MsgLocked)
	}
	if _, err := fireEntry(ctx, e, workflow.TriggerUnapprove, MsgNotApproved); err != nil {
		return nil, err
	}

	return s.changeStatus(ctx, actor, e, entity.EntryPending, entity.EditUnapprovedTimeRecord)
}

func (s *approvalServiceImpl) changeStatus(ctx context.Context, actor entity.Actor, e *entity.TimesheetEntry, to entity.EntryStatus, editType string) (*CommandResult, error) {
	from := e.Status
	if err := s.entryRepo.UpdateStatus(ctx, e.ID, from, to); err != nil {
		return nil, writeError(err)
	}
	e.Status = to
	s.logger.Info("Entry status changed", "entry_id", e.ID, "from", from, "to", to, "actor", actor.Login)

	result := &CommandResult{Entry: e, Changed: true}
	if err := s.logs.Append(ctx, s.logs.EntryRow(actor, e, editType, string(from), string(to))); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningEditLog, e.WiwTimeID, err))
	}
	if err := s.headers.Refresh(ctx, e.TimesheetID); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningTotals, e.WiwTimeID, err))
	}
	result.Timesheet, _ = s.timesheetRepo.GetByID(ctx, e.TimesheetID)
	return result, nil
}

// FinalizeTimesheet signs off a timesheet whose entries are all approved and
// archives them
func (s *approvalServiceImpl) FinalizeTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*CommandResult, error) {
	ts, err := s.loadTimesheet(ctx, actor, timesheetID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByTimesheet(ctx, ts.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	ready := func(context.Context) error {
		if len(entries) == 0 {
			return apperr.NewPrecondition(MsgNoEntries)
		}
		for _, e := range entries {
			if e.Status != entity.EntryApproved {
				return apperr.NewPrecondition(MsgNotAllApproved)
			}
		}
		return nil
	}

	m, err := workflow.NewTimesheetMachine(workflow.State(ts.Status), ready)
	if err != nil {
		return nil, err
	}
	if _, err := m.Fire(ctx, workflow.TriggerFinalize); err != nil {
		return nil, transitionError(err, MsgLocked)
	}

	from := ts.Status
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.timesheetRepo.UpdateStatus(txCtx, ts.ID, from, entity.HeaderFinalized); err != nil {
			return err
		}
		archived, err := s.entryRepo.ArchiveApproved(txCtx, ts.ID)
		if err != nil {
			return err
		}
		if archived != int64(len(entries)) {
			return apperr.ErrConflict
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to finalize timesheet", "error", err, "timesheet_id", ts.ID)
		return nil, writeError(err)
	}
	ts.Status = entity.HeaderFinalized
	s.logger.Info("Timesheet finalized", "timesheet_id", ts.ID, "entries", len(entries), "actor", actor.Login)

	result := &CommandResult{Timesheet: ts, Changed: true}
	row := s.logs.TimesheetRow(actor, ts, entity.EditApprovedTimeSheet, string(from), string(entity.HeaderFinalized))
	if err := s.logs.Append(ctx, row); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningEditLog, ts.ID, err))
	}
	return result, nil
}

// EditEntry replaces clock fields on an entry that is not locked
func (s *approvalServiceImpl) EditEntry(ctx context.Context, actor entity.Actor, entryID int64, req EditRequest) (*CommandResult, error) {
	if req.ClockIn == nil && req.ClockOut == nil && req.BreakMinutes == nil {
		return nil, apperr.NewValidation("request", MsgNothingToChange)
	}

	e, ts, err := s.loadEntry(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	next := e.Clone()
	loc := s.clock.Location()
	if req.ClockIn != nil {
		if next.ClockIn, err = parseClockField("clock_in", "Clock In", *req.ClockIn, e.Date, loc); err != nil {
			return nil, err
		}
	}
	if req.ClockOut != nil {
		if next.ClockOut, err = parseClockField("clock_out", "Clock Out", *req.ClockOut, e.Date, loc); err != nil {
			return nil, err
		}
	}
	if req.BreakMinutes != nil {
		if next.BreakMinutes, err = parseBreakMinutes(string(*req.BreakMinutes)); err != nil {
			return nil, err
		}
	}
	if next.ClockIn != nil && next.ClockOut != nil && !next.ClockOut.After(*next.ClockIn) {
		return nil, apperr.NewValidation("clock_out", MsgClockOrder)
	}

	if ts.Status.IsLocked() {
		return nil, apperr.NewPrecondition(MsgLocked)
	}
	if _, err := fireEntry(ctx, e, workflow.TriggerEdit, MsgLocked); err != nil {
		return nil, err
	}

	next.Recompute()
	if e.ExtraTimeStatus.IsDecided() && !next.AdditionalHours.Equal(e.AdditionalHours) {
		next.ExtraTimeStatus = entity.ExtraTimeUnset
		next.Recompute()
	}
	if len(DiffEntries(e, next)) == 0 {
		return &CommandResult{Entry: e, Timesheet: ts}, nil
	}
	next.LocallyEdited = true

	return s.applyEntryChange(ctx, actor, e, next)
}

// DecideExtraTime confirms or denies an entry's additional hours
func (s *approvalServiceImpl) DecideExtraTime(ctx context.Context, actor entity.Actor, wiwTimeID int64, decision Decision) (*CommandResult, error) {
	var status entity.ExtraTimeStatus
	switch Decision(strings.ToLower(string(decision))) {
	case DecisionConfirm:
		status = entity.ExtraTimeConfirmed
	case DecisionDeny:
		status = entity.ExtraTimeDenied
	default:
		return nil, apperr.NewValidation("decision", MsgBadDecision)
	}

	e, err := s.entryRepo.GetByTimeID(ctx, wiwTimeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NewPrecondition(MsgEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	e, ts, err := s.loadEntry(ctx, actor, e.ID)
	if err != nil {
		return nil, err
	}
	if ts.Status.IsLocked() {
		return nil, apperr.NewPrecondition(MsgLocked)
	}
	if _, err := fireEntry(ctx, e, workflow.TriggerEdit, MsgLocked); err != nil {
		return nil, err
	}
	if e.ExtraTimeStatus.IsDecided() {
		return nil, apperr.NewPrecondition(MsgExtraTimeDecided)
	}
	if !e.AdditionalHours.IsPositive() {
		return nil, apperr.NewPrecondition(MsgNoAdditionalTime)
	}

	next := e.Clone()
	next.ExtraTimeStatus = status
	next.Recompute()
	return s.applyEntryChange(ctx, actor, e, next)
}

// applyEntryChange writes next over before with a status guard, then logs
// each changed field, reconciles flags and refreshes the header
func (s *approvalServiceImpl) applyEntryChange(ctx context.Context, actor entity.Actor, before, next *entity.TimesheetEntry) (*CommandResult, error) {
	next.UpdatedAt = s.clock.Now()
	if err := s.entryRepo.Update(ctx, next, before.Status); err != nil {
		s.logger.Error("Failed to update entry", "error", err, "entry_id", next.ID)
		return nil, writeError(err)
	}

	result := &CommandResult{Entry: next, Changed: true}
	if err := s.logs.Append(ctx, s.logs.DiffRows(actor, before, next)...); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningEditLog, next.WiwTimeID, err))
	}
	flags, err := s.flags.Reconcile(ctx, next)
	if err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningFlags, next.WiwTimeID, err))
	}
	result.Flags = flags
	if err := s.headers.Refresh(ctx, next.TimesheetID); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningTotals, next.WiwTimeID, err))
	}
	result.Timesheet, _ = s.timesheetRepo.GetByID(ctx, next.TimesheetID)

	s.logger.Info("Entry updated", "entry_id", next.ID, "actor", actor.Login)
	return result, nil
}

// ResetTimesheet deletes a timesheet's entries and flags, reopens it and
// resynchronizes its period from the provider
func (s *approvalServiceImpl) ResetTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*ResetResult, error) {
	if !actor.IsAdmin() {
		return nil, apperr.NewPrecondition(MsgAdminOnlyReset)
	}
	ts, err := s.loadTimesheet(ctx, actor, timesheetID)
	if err != nil {
		return nil, err
	}

	m, err := workflow.NewTimesheetMachine(workflow.State(ts.Status), workflow.AlwaysReady)
	if err != nil {
		return nil, err
	}
	if _, err := m.Fire(ctx, workflow.TriggerReset); err != nil {
		return nil, transitionError(err, MsgTimesheetNotFound)
	}

	entries, err := s.entryRepo.ListByTimesheet(ctx, ts.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	timeIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		timeIDs = append(timeIDs, e.WiwTimeID)
	}

	if s.provider == nil {
		return nil, apperr.NewUpstream("fetch times", errors.New(MsgProviderNotAvailable))
	}
	batch, err := s.provider.FetchTimes(ctx, port.ProviderQuery{
		Start:      ts.PeriodStart,
		End:        period.EndOfDay(ts.PeriodEnd, s.clock.Location()),
		LocationID: ts.LocationID,
		UserID:     ts.EmployeeID,
	})
	if err != nil {
		s.logger.Error("Provider fetch failed during reset", "error", err, "timesheet_id", ts.ID)
		return nil, apperr.NewUpstream("fetch times", err)
	}

	result := &ResetResult{}
	from := ts.Status
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if result.DeletedEntries, err = s.entryRepo.DeleteByTimesheet(txCtx, ts.ID); err != nil {
			return err
		}
		if result.PurgedFlags, err = s.flagRepo.DeleteByTimeIDs(txCtx, timeIDs); err != nil {
			return err
		}
		reset := *ts
		reset.Totals(nil)
		reset.UpdatedAt = s.clock.Now()
		if err := s.timesheetRepo.UpdateTotals(txCtx, &reset); err != nil {
			return err
		}
		if from != entity.HeaderPending {
			return s.timesheetRepo.UpdateStatus(txCtx, ts.ID, from, entity.HeaderPending)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to reset timesheet", "error", err, "timesheet_id", ts.ID)
		return nil, writeError(err)
	}
	ts.Status = entity.HeaderPending
	s.logger.Info("Timesheet reset", "timesheet_id", ts.ID, "deleted_entries", result.DeletedEntries, "actor", actor.Login)

	row := s.logs.TimesheetRow(actor, ts, entity.EditResetTimeSheet, string(from), string(entity.HeaderPending))
	if err := s.logs.Append(ctx, row); err != nil {
		result.Warnings = append(result.Warnings, derivedWarning(s.logger, apperr.WarningEditLog, ts.ID, err))
	}

	result.Sync, err = s.sync.SyncBatch(ctx, employeeTimes(batch, ts.EmployeeID), SyncOptions{})
	if err != nil {
		return result, err
	}
	if result.Timesheet, err = s.timesheetRepo.GetByID(ctx, ts.ID); err != nil {
		result.Timesheet = ts
	}
	return result, nil
}

func (s *approvalServiceImpl) loadEntry(ctx context.Context, actor entity.Actor, entryID int64) (*entity.TimesheetEntry, *entity.Timesheet, error) {
	e, err := s.entryRepo.GetByID(ctx, entryID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, apperr.NewPrecondition(MsgEntryNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get entry: %w", err)
	}
	if !actor.CanAccess(e.LocationID) {
		return nil, nil, apperr.NewPrecondition(MsgEntryWrongLocation)
	}

	ts, err := s.timesheetRepo.GetByID(ctx, e.TimesheetID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, apperr.NewPrecondition(MsgTimesheetNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get timesheet: %w", err)
	}
	return e, ts, nil
}

func (s *approvalServiceImpl) loadTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*entity.Timesheet, error) {
	ts, err := s.timesheetRepo.GetByID(ctx, timesheetID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NewPrecondition(MsgTimesheetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get timesheet: %w", err)
	}
	if !actor.CanAccess(ts.LocationID) {
		return nil, apperr.NewPrecondition(MsgHeaderWrongLocation)
	}
	return ts, nil
}

// fireEntry checks trigger against the entry lifecycle. reason names the
// failure when the trigger is not allowed from the entry's status.
func fireEntry(ctx context.Context, e *entity.TimesheetEntry, trigger workflow.Trigger, reason string) (bool, error) {
	m, err := workflow.NewEntryMachine(workflow.State(e.Status))
	if err != nil {
		return false, err
	}
	changed, err := m.Fire(ctx, trigger)
	if err != nil {
		return false, transitionError(err, reason)
	}
	return changed, nil
}

func transitionError(err error, reason string) error {
	var pe *apperr.PreconditionError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrGuardFailed) {
		return apperr.NewPrecondition(reason)
	}
	return err
}

func writeError(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		return apperr.NewPrecondition(MsgConflict)
	}
	return err
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "3:04pm", "3:04 pm"}

// parseClockField reads a full local datetime or a time of day on date.
// Blank clears the field.
func parseClockField(field, label, raw string, date time.Time, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t := timemath.ParseLocal(raw, loc); t != nil {
		return t, nil
	}
	for _, layout := range clockLayouts {
		tod, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		d := date.In(loc)
		t := time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
		return &t, nil
	}
	return nil, apperr.NewValidation(field, badTimeMessage(label))
}

func parseBreakMinutes(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return 0, apperr.NewValidation("break_minutes", MsgBreakMinutes)
	}
	return int(d.IntPart()), nil
}

func employeeTimes(batch *port.ProviderBatch, employeeID int64) *port.ProviderBatch {
	if batch == nil {
		return &port.ProviderBatch{}
	}
	filtered := *batch
	filtered.Times = nil
	for _, t := range batch.Times {
		if t.UserID == employeeID {
			filtered.Times = append(filtered.Times, t)
		}
	}
	return &filtered
}

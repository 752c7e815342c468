package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/domain/timemath"
	"github.com/garyjia/timesheet-approval/internal/domain/workflow"
	"github.com/google/uuid"
)

// RunOptions controls one auto-approval run
type RunOptions struct {
	// DryRun computes the same rows without writing anything
	DryRun bool

	// Now overrides the clock
	Now time.Time

	// Notify publishes a dry-run report. Live runs always publish.
	Notify bool
}

// AutoApprovalService approves past-due pending entries after remediating
// missing clock-outs and unconfirmed additional time
type AutoApprovalService interface {
	Run(ctx context.Context, opts RunOptions) (*entity.ApprovalReport, error)
}

type autoApprovalServiceImpl struct {
	txManager     port.TransactionManager
	timesheetRepo port.TimesheetRepository
	entryRepo     port.EntryRepository
	flags         FlagService
	logs          EditLogWriter
	headers       *headerRefresher
	publisher     ReportPublisher
	clock         port.Clock
	logger        Logger
}

// NewAutoApprovalService creates a new AutoApprovalService. publisher may be nil.
func NewAutoApprovalService(deps Deps, publisher ReportPublisher) AutoApprovalService {
	return &autoApprovalServiceImpl{
		txManager:     deps.TxManager,
		timesheetRepo: deps.Timesheets,
		entryRepo:     deps.Entries,
		flags:         deps.flagService(),
		logs:          deps.editLogWriter(),
		headers:       deps.headerRefresher(),
		publisher:     publisher,
		clock:         deps.Clock,
		logger:        deps.logger(),
	}
}

func (s *autoApprovalServiceImpl) Run(ctx context.Context, opts RunOptions) (*entity.ApprovalReport, error) {
	now := opts.Now
	if now.IsZero() {
		now = s.clock.Now()
	}
	w := period.WindowAt(now, s.clock.Location())

	report := &entity.ApprovalReport{
		RunID:        uuid.NewString(),
		DryRun:       opts.DryRun,
		Now:          w.Now,
		WeekStart:    w.WeekStart,
		Cutoff:       w.Cutoff,
		NextDeadline: w.NextDeadline,
	}

	cutoff := w.Cutoff
	candidates, err := s.entryRepo.List(ctx, entity.EntryFilter{Status: entity.EntryPending, DateBefore: &cutoff})
	if err != nil {
		return nil, fmt.Errorf("list past due entries: %w", err)
	}

	headers := newHeaderCache(s.timesheetRepo)
	for _, e := range candidates {
		ts, err := headers.get(ctx, e.TimesheetID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("time record %d: %v", e.WiwTimeID, err))
			continue
		}
		if ts.Status != entity.HeaderPending {
			continue
		}

		report.Eligible++
		row := reportRow(e, planRemediation(e))
		if !opts.DryRun {
			warnings, err := s.approve(ctx, e.ID, &row)
			report.Warnings = append(report.Warnings, warnings...)
			if err != nil {
				row.Error = err.Error()
				report.Errors = append(report.Errors, fmt.Sprintf("time record %d: %v", e.WiwTimeID, err))
			}
			if row.Approved {
				report.Approved++
			}
		}
		report.Rows = append(report.Rows, row)
	}

	s.logger.Info("Auto-approval run complete",
		"run_id", report.RunID,
		"dry_run", report.DryRun,
		"cutoff", dateText(report.Cutoff),
		"eligible", report.Eligible,
		"approved", report.Approved,
		"errors", len(report.Errors))

	if s.publisher != nil && (!opts.DryRun || opts.Notify) {
		if _, err := s.publisher.Publish(ctx, report); err != nil {
			s.logger.Warn("Failed to publish auto-approval report", "run_id", report.RunID, "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("publish report: %v", err))
		}
	}
	return report, nil
}

// approve re-reads the entry, re-plans its remediation and approves it as
// the system actor. Entries that stopped being pending are left alone.
func (s *autoApprovalServiceImpl) approve(ctx context.Context, entryID int64, row *entity.ReportRow) ([]string, error) {
	fresh, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("reload entry: %w", err)
	}
	if fresh.Status != entity.EntryPending {
		return nil, nil
	}
	ts, err := s.timesheetRepo.GetByID(ctx, fresh.TimesheetID)
	if err != nil {
		return nil, fmt.Errorf("reload timesheet: %w", err)
	}
	if ts.Status != entity.HeaderPending {
		return nil, nil
	}

	plan := planRemediation(fresh)
	*row = reportRow(fresh, plan)

	if _, err := fireEntry(ctx, fresh, workflow.TriggerApprove, MsgLocked); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if plan.changed {
			plan.after.UpdatedAt = s.clock.Now()
			if err := s.entryRepo.Update(txCtx, plan.after, entity.EntryPending); err != nil {
				return err
			}
		}
		return s.entryRepo.UpdateStatus(txCtx, fresh.ID, entity.EntryPending, entity.EntryApproved)
	})
	if err != nil {
		return nil, writeError(err)
	}
	row.Approved = true
	plan.after.Status = entity.EntryApproved

	var warnings []string
	rows := s.logs.DiffRows(entity.AutoApprover, fresh, plan.after)
	rows = append(rows, s.logs.EntryRow(entity.AutoApprover, plan.after, entity.EditApprovedTimeRecord,
		string(entity.EntryPending), string(entity.EntryApproved)))
	if err := s.logs.Append(ctx, rows...); err != nil {
		warnings = append(warnings, derivedWarning(s.logger, apperr.WarningEditLog, fresh.WiwTimeID, err))
	}
	if plan.changed {
		if _, err := s.flags.Reconcile(ctx, plan.after); err != nil {
			warnings = append(warnings, derivedWarning(s.logger, apperr.WarningFlags, fresh.WiwTimeID, err))
		}
	}
	if err := s.headers.Refresh(ctx, fresh.TimesheetID); err != nil {
		warnings = append(warnings, derivedWarning(s.logger, apperr.WarningTotals, fresh.WiwTimeID, err))
	}
	return warnings, nil
}

type remediation struct {
	after    *entity.TimesheetEntry
	resolved []flag.Type
	changed  bool
}

// planRemediation computes the automatic fixes for a past-due entry:
// a missing clock-out takes the scheduled end, and a late clock-out beyond
// tolerance has its additional time confirmed. Both modes of a run use it.
func planRemediation(e *entity.TimesheetEntry) remediation {
	before := flag.Active(e.Snapshot())
	active := make(map[flag.Type]bool, len(before))
	for _, t := range before {
		active[t] = true
	}

	after := e.Clone()
	changed := false

	if active[flag.TypeMissingClockOut] && e.ScheduledEnd != nil && e.ClockIn != nil {
		end := *e.ScheduledEnd
		after.ClockOut = &end
		after.Recompute()
		changed = true
	}

	// 104 is measured on the raw clock-out, so it can be active while the
	// rounded additional hours read exactly 0.25
	if active[flag.TypeLateClockOut] && after.ExtraTimeStatus != entity.ExtraTimeConfirmed {
		after.ExtraTimeStatus = entity.ExtraTimeConfirmed
		after.Recompute()
		changed = true
	}

	still := make(map[flag.Type]bool)
	for _, t := range flag.Active(after.Snapshot()) {
		still[t] = true
	}
	var resolved []flag.Type
	for _, t := range before {
		if !still[t] {
			resolved = append(resolved, t)
		}
	}

	return remediation{after: after, resolved: resolved, changed: changed}
}

func reportRow(e *entity.TimesheetEntry, plan remediation) entity.ReportRow {
	return entity.ReportRow{
		EntryID:         e.ID,
		TimesheetID:     e.TimesheetID,
		WiwTimeID:       e.WiwTimeID,
		EmployeeName:    e.EmployeeName,
		LocationName:    e.LocationName,
		Date:            e.Date,
		ClockOutBefore:  timemath.FormatLocal(e.ClockOut),
		ClockOutAfter:   timemath.FormatLocal(plan.after.ClockOut),
		PayableBefore:   e.PayableHours,
		PayableAfter:    plan.after.PayableHours,
		ExtraTimeBefore: e.ExtraTimeStatus.Label(),
		ExtraTimeAfter:  plan.after.ExtraTimeStatus.Label(),
		ResolvedFlags:   plan.resolved,
	}
}

// headerCache memoizes header lookups for the length of one run
type headerCache struct {
	repo    port.TimesheetRepository
	headers map[int64]*entity.Timesheet
}

func newHeaderCache(repo port.TimesheetRepository) *headerCache {
	return &headerCache{repo: repo, headers: make(map[int64]*entity.Timesheet)}
}

func (c *headerCache) get(ctx context.Context, id int64) (*entity.Timesheet, error) {
	if ts, ok := c.headers[id]; ok {
		return ts, nil
	}
	ts, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.headers[id] = ts
	return ts, nil
}

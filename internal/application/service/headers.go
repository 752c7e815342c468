package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

// headerRefresher keeps a header's aggregate hours and its pending/approved
// status in line with the entries under it. Finalized headers keep their
// status.
type headerRefresher struct {
	timesheetRepo port.TimesheetRepository
	entryRepo     port.EntryRepository
	clock         port.Clock
}

func (h *headerRefresher) Refresh(ctx context.Context, timesheetID int64) error {
	ts, err := h.timesheetRepo.GetByID(ctx, timesheetID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get timesheet: %w", err)
	}

	entries, err := h.entryRepo.ListByTimesheet(ctx, timesheetID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	updated := *ts
	updated.Totals(entries)
	if !updated.ScheduledHours.Equal(ts.ScheduledHours) ||
		!updated.ClockedHours.Equal(ts.ClockedHours) ||
		!updated.PayableHours.Equal(ts.PayableHours) {
		updated.UpdatedAt = h.clock.Now()
		if err := h.timesheetRepo.UpdateTotals(ctx, &updated); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
	}

	if target := headerStatusFor(ts.Status, entries); target != ts.Status {
		if err := h.timesheetRepo.UpdateStatus(ctx, ts.ID, ts.Status, target); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
	}
	return nil
}

func headerStatusFor(current entity.HeaderStatus, entries []*entity.TimesheetEntry) entity.HeaderStatus {
	if current.IsLocked() {
		return current
	}
	if len(entries) == 0 {
		return entity.HeaderPending
	}
	for _, e := range entries {
		if e.Status != entity.EntryApproved {
			return entity.HeaderPending
		}
	}
	return entity.HeaderApproved
}

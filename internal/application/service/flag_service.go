package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/flag"
)

// FlagResult lists the flag types whose stored rows changed
type FlagResult struct {
	Activated []flag.Type `json:"activated,omitempty"`
	Resolved  []flag.Type `json:"resolved,omitempty"`
	Inserted  []flag.Type `json:"inserted,omitempty"`
}

// Changed reports whether any row was written
func (r FlagResult) Changed() bool {
	return len(r.Activated)+len(r.Resolved)+len(r.Inserted) > 0
}

// FlagService keeps stored flags consistent with an entry's fields
type FlagService interface {
	// Reconcile brings the stored flags of the entry's time record in line
	// with the rules. Rows are updated only when their status changes and
	// inserted only when active.
	Reconcile(ctx context.Context, entry *entity.TimesheetEntry) (FlagResult, error)
}

type flagServiceImpl struct {
	flagRepo port.FlagRepository
	clock    port.Clock
	logger   Logger
}

// NewFlagService creates a new FlagService
func NewFlagService(flagRepo port.FlagRepository, clock port.Clock, logger Logger) FlagService {
	return &flagServiceImpl{
		flagRepo: flagRepo,
		clock:    clock,
		logger:   logger,
	}
}

func (s *flagServiceImpl) Reconcile(ctx context.Context, entry *entity.TimesheetEntry) (FlagResult, error) {
	var result FlagResult

	stored, err := s.flagRepo.ListByTimeID(ctx, entry.WiwTimeID)
	if err != nil {
		return result, fmt.Errorf("list flags: %w", err)
	}
	byType := make(map[flag.Type]*entity.Flag, len(stored))
	for _, f := range stored {
		byType[f.Type] = f
	}

	desired := flag.Evaluate(entry.Snapshot())
	now := s.clock.Now()

	var errs []error
	for _, t := range flag.Catalog {
		want := desired[t]

		if f, ok := byType[t]; ok {
			if f.Status == want {
				continue
			}
			if err := s.flagRepo.UpdateStatus(ctx, f.ID, want, now); err != nil {
				errs = append(errs, fmt.Errorf("update flag %d: %w", t, err))
				continue
			}
			if want == flag.StatusActive {
				result.Activated = append(result.Activated, t)
			} else {
				result.Resolved = append(result.Resolved, t)
			}
			continue
		}

		if want != flag.StatusActive {
			continue
		}
		f := &entity.Flag{
			WiwTimeID:   entry.WiwTimeID,
			Type:        t,
			Description: t.Description(),
			Status:      flag.StatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.flagRepo.Create(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("insert flag %d: %w", t, err))
			continue
		}
		result.Inserted = append(result.Inserted, t)
	}

	if result.Changed() {
		s.logger.Info("Flags reconciled",
			"wiw_time_id", entry.WiwTimeID,
			"activated", result.Activated,
			"resolved", result.Resolved,
			"inserted", result.Inserted)
	}
	return result, errors.Join(errs...)
}

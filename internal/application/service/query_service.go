package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
)

// TimesheetDetail is a header with its entries and their flags
type TimesheetDetail struct {
	Timesheet *entity.Timesheet        `json:"timesheet"`
	Entries   []*entity.TimesheetEntry `json:"entries"`
	Flags     map[int64][]*entity.Flag `json:"flags"`
}

// Deadline describes the current auto-approval window
type Deadline struct {
	Now          time.Time `json:"now"`
	WeekStart    time.Time `json:"week_start"`
	WeekEnd      time.Time `json:"week_end"`
	Cutoff       time.Time `json:"cutoff"`
	NextDeadline time.Time `json:"next_deadline"`
}

// QueryService reads timesheets scoped to the actor's location
type QueryService interface {
	ListTimesheets(ctx context.Context, actor entity.Actor, filter entity.TimesheetFilter) ([]*entity.Timesheet, error)
	GetTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*TimesheetDetail, error)
	History(ctx context.Context, actor entity.Actor, timesheetID int64) ([]*entity.EditLogRow, error)
	Deadline(now time.Time) Deadline
}

type queryServiceImpl struct {
	timesheetRepo port.TimesheetRepository
	entryRepo     port.EntryRepository
	flagRepo      port.FlagRepository
	logRepo       port.EditLogRepository
	clock         port.Clock
	logger        Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(deps Deps) QueryService {
	return &queryServiceImpl{
		timesheetRepo: deps.Timesheets,
		entryRepo:     deps.Entries,
		flagRepo:      deps.Flags,
		logRepo:       deps.EditLogs,
		clock:         deps.Clock,
		logger:        deps.logger(),
	}
}

// ListTimesheets lists headers. Client actors only see their location.
func (s *queryServiceImpl) ListTimesheets(ctx context.Context, actor entity.Actor, filter entity.TimesheetFilter) ([]*entity.Timesheet, error) {
	if !actor.IsAdmin() {
		if filter.LocationID != 0 && filter.LocationID != actor.LocationID {
			return nil, apperr.NewPrecondition(MsgHeaderWrongLocation)
		}
		filter.LocationID = actor.LocationID
	}
	timesheets, err := s.timesheetRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list timesheets", "error", err)
		return nil, err
	}
	return timesheets, nil
}

func (s *queryServiceImpl) GetTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*TimesheetDetail, error) {
	ts, err := s.scopedTimesheet(ctx, actor, timesheetID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByTimesheet(ctx, ts.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	timeIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		timeIDs = append(timeIDs, e.WiwTimeID)
	}
	flags, err := s.flagRepo.ListByTimeIDs(ctx, timeIDs)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	detail := &TimesheetDetail{
		Timesheet: ts,
		Entries:   entries,
		Flags:     make(map[int64][]*entity.Flag, len(entries)),
	}
	for _, f := range flags {
		detail.Flags[f.WiwTimeID] = append(detail.Flags[f.WiwTimeID], f)
	}
	return detail, nil
}

// History returns the edit log of a timesheet in write order
func (s *queryServiceImpl) History(ctx context.Context, actor entity.Actor, timesheetID int64) ([]*entity.EditLogRow, error) {
	ts, err := s.scopedTimesheet(ctx, actor, timesheetID)
	if err != nil {
		return nil, err
	}
	return s.logRepo.ListByTimesheet(ctx, ts.ID)
}

func (s *queryServiceImpl) Deadline(now time.Time) Deadline {
	if now.IsZero() {
		now = s.clock.Now()
	}
	w := period.WindowAt(now, s.clock.Location())
	return Deadline{
		Now:          w.Now,
		WeekStart:    w.WeekStart,
		WeekEnd:      w.WeekEnd(),
		Cutoff:       w.Cutoff,
		NextDeadline: w.NextDeadline,
	}
}

func (s *queryServiceImpl) scopedTimesheet(ctx context.Context, actor entity.Actor, timesheetID int64) (*entity.Timesheet, error) {
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

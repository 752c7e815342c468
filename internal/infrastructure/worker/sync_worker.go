package worker

import (
	"context"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"go.uber.org/zap"
)

// SyncConfig controls the provider poller
type SyncConfig struct {
	Interval        time.Duration
	LocationIDs     []int64
	LookbackPeriods int
}

// SyncWorker pulls the current pay period (and optionally earlier ones) from
// the provider on an interval. Configured locations are synced one by one
// with pruning; otherwise the whole window is synced without pruning.
type SyncWorker struct {
	loop
	config   SyncConfig
	sync     service.SyncService
	calendar *period.Calendar
}

// NewSyncWorker creates a new SyncWorker
func NewSyncWorker(cfg SyncConfig, sync service.SyncService, calendar *period.Calendar, clock port.Clock, logger *zap.Logger) *SyncWorker {
	w := &SyncWorker{
		config:   cfg,
		sync:     sync,
		calendar: calendar,
	}
	w.loop = loop{
		name:     "SyncWorker",
		interval: cfg.Interval,
		now:      clock.Now,
		logger:   logger,
	}
	w.loop.fn = func(ctx context.Context, now time.Time) { w.Tick(ctx, now) }
	return w
}

// Window returns the first and last instant the poller covers at now
func (w *SyncWorker) Window(now time.Time) (time.Time, time.Time) {
	current := w.calendar.Bucket(now)
	start := current.Start.AddDate(0, 0, -w.config.LookbackPeriods*w.calendar.LengthDays())
	return start, current.LastInstant()
}

// Tick runs one sync pass and returns the number of failed syncs
func (w *SyncWorker) Tick(ctx context.Context, now time.Time) int {
	start, end := w.Window(now)

	if len(w.config.LocationIDs) == 0 {
		result, err := w.sync.SyncWindow(ctx, start, end)
		if err != nil {
			w.logger.Error("Sync failed", zap.Error(err))
			return 1
		}
		w.logResult(0, result)
		return 0
	}

	failed := 0
	for _, id := range w.config.LocationIDs {
		if ctx.Err() != nil {
			return failed
		}
		result, err := w.sync.SyncLocation(ctx, id, start, end)
		if err != nil {
			w.logger.Error("Location sync failed", zap.Int64("location_id", id), zap.Error(err))
			failed++
			continue
		}
		w.logResult(id, result)
	}
	return failed
}

func (w *SyncWorker) logResult(locationID int64, r *service.SyncResult) {
	w.logger.Info("Sync pass complete",
		zap.Int64("location_id", locationID),
		zap.String("run_id", r.RunID),
		zap.Int("created", r.Created),
		zap.Int("updated", r.Updated),
		zap.Int("pruned", r.Pruned),
		zap.Int("warnings", len(r.Warnings)))
}

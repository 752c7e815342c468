package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"go.uber.org/zap"
)

// AutoApprovalConfig schedules the weekly run
type AutoApprovalConfig struct {
	Weekday       time.Weekday
	Hour          int
	Minute        int
	CheckInterval time.Duration
}

// AutoApprovalWorker fires the auto-approval job once a week at the
// configured local weekday and time
type AutoApprovalWorker struct {
	loop
	config  AutoApprovalConfig
	service service.AutoApprovalService
	clock   port.Clock

	runMu   sync.Mutex
	lastRun time.Time
}

// NewAutoApprovalWorker creates a new AutoApprovalWorker
func NewAutoApprovalWorker(cfg AutoApprovalConfig, svc service.AutoApprovalService, clock port.Clock, logger *zap.Logger) *AutoApprovalWorker {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	w := &AutoApprovalWorker{
		config:  cfg,
		service: svc,
		clock:   clock,
	}
	w.loop = loop{
		name:     "AutoApprovalWorker",
		interval: cfg.CheckInterval,
		now:      clock.Now,
		logger:   logger,
	}
	w.loop.fn = func(ctx context.Context, now time.Time) { w.Tick(ctx, now) }
	return w
}

// ScheduledAt returns this week's run time for the week containing now
func (w *AutoApprovalWorker) ScheduledAt(now time.Time) time.Time {
	now = now.In(w.clock.Location())
	offset := int(w.config.Weekday) - int(now.Weekday())
	day := now.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), w.config.Hour, w.config.Minute, 0, 0, w.clock.Location())
}

// Tick runs the job if this week's slot has passed and has not run yet.
// It reports whether a run was attempted.
func (w *AutoApprovalWorker) Tick(ctx context.Context, now time.Time) bool {
	slot := w.ScheduledAt(now)
	if now.Before(slot) {
		return false
	}

	w.runMu.Lock()
	if !w.lastRun.Before(slot) {
		w.runMu.Unlock()
		return false
	}
	w.lastRun = slot
	w.runMu.Unlock()

	report, err := w.service.Run(ctx, service.RunOptions{Now: now})
	if err != nil {
		w.logger.Error("Auto-approval run failed", zap.Time("slot", slot), zap.Error(err))
		return true
	}
	w.logger.Info("Auto-approval run finished",
		zap.String("run_id", report.RunID),
		zap.Int("eligible", report.Eligible),
		zap.Int("approved", report.Approved),
		zap.Int("errors", len(report.Errors)))
	return true
}

// MarkRun records slot as already run, so a restart after the slot does not
// repeat it
func (w *AutoApprovalWorker) MarkRun(slot time.Time) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.lastRun = slot
}

// ParseWeekday reads a weekday name such as "Tuesday" or "tue"
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseClock reads an HH:MM time of day
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

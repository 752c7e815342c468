package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var chicago = func() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
	return loc
}()

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, chicago)
	if err != nil {
		panic(err)
	}
	return t
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time           { return c.now }
func (c fixedClock) Location() *time.Location { return chicago }

type fakeAutoApproval struct {
	runs []service.RunOptions
	err  error
}

func (f *fakeAutoApproval) Run(ctx context.Context, opts service.RunOptions) (*entity.ApprovalReport, error) {
	f.runs = append(f.runs, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ApprovalReport{RunID: "run"}, nil
}

func TestAutoApprovalWorker_Tick(t *testing.T) {
	svc := &fakeAutoApproval{}
	cfg := AutoApprovalConfig{Weekday: time.Tuesday, Hour: 8, Minute: 5}
	w := NewAutoApprovalWorker(cfg, svc, fixedClock{}, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, at("2025-12-16 08:05"), w.ScheduledAt(at("2025-12-14 10:00")))
	assert.Equal(t, at("2025-12-16 08:05"), w.ScheduledAt(at("2025-12-20 23:00")))

	assert.False(t, w.Tick(ctx, at("2025-12-16 08:04")))
	assert.True(t, w.Tick(ctx, at("2025-12-16 08:05")))
	assert.False(t, w.Tick(ctx, at("2025-12-16 09:00")))
	assert.False(t, w.Tick(ctx, at("2025-12-19 09:00")))
	assert.True(t, w.Tick(ctx, at("2025-12-23 08:06")))

	require.Len(t, svc.runs, 2)
	assert.Equal(t, at("2025-12-16 08:05"), svc.runs[0].Now)
	assert.False(t, svc.runs[0].DryRun)

	// a failed run is not retried within the same week
	svc.err = errors.New("database locked")
	assert.True(t, w.Tick(ctx, at("2025-12-30 08:05")))
	assert.False(t, w.Tick(ctx, at("2025-12-30 08:10")))

	w.MarkRun(at("2026-01-06 08:05"))
	assert.False(t, w.Tick(ctx, at("2026-01-06 09:00")))
}

func TestParseWeekdayAndClock(t *testing.T) {
	d, err := ParseWeekday("tuesday")
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, d)

	d, err = ParseWeekday("Sat")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)

	h, m, err := ParseClock("08:05")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 5, m)

	_, _, err = ParseClock("8am")
	assert.Error(t, err)
}

type syncCall struct {
	location   int64
	start, end time.Time
}

type fakeSync struct {
	calls []syncCall
	fail  map[int64]bool
}

func (f *fakeSync) SyncBatch(ctx context.Context, batch *port.ProviderBatch, opts service.SyncOptions) (*service.SyncResult, error) {
	return &service.SyncResult{}, nil
}

func (f *fakeSync) SyncLocation(ctx context.Context, locationID int64, start, end time.Time) (*service.SyncResult, error) {
	f.calls = append(f.calls, syncCall{locationID, start, end})
	if f.fail[locationID] {
		return nil, errors.New("upstream unavailable")
	}
	return &service.SyncResult{}, nil
}

func (f *fakeSync) SyncWindow(ctx context.Context, start, end time.Time) (*service.SyncResult, error) {
	f.calls = append(f.calls, syncCall{0, start, end})
	return &service.SyncResult{}, nil
}

func newCalendar(t *testing.T) *period.Calendar {
	cal, err := period.NewCalendar(at("2024-01-07 00:00"), 14, chicago)
	require.NoError(t, err)
	return cal
}

func TestSyncWorker_Tick(t *testing.T) {
	svc := &fakeSync{fail: map[int64]bool{4: true}}
	w := NewSyncWorker(SyncConfig{Interval: time.Minute, LocationIDs: []int64{3, 4}, LookbackPeriods: 1}, svc, newCalendar(t), fixedClock{}, zap.NewNop())

	start, end := w.Window(at("2025-12-10 12:00"))
	assert.Equal(t, at("2025-11-23 00:00"), start)
	assert.Equal(t, "2025-12-20 23:59:59", end.Format("2006-01-02 15:04:05"))

	failed := w.Tick(context.Background(), at("2025-12-10 12:00"))
	assert.Equal(t, 1, failed)
	require.Len(t, svc.calls, 2)
	assert.Equal(t, int64(3), svc.calls[0].location)
	assert.Equal(t, int64(4), svc.calls[1].location)
}

func TestSyncWorker_AllLocations(t *testing.T) {
	svc := &fakeSync{}
	w := NewSyncWorker(SyncConfig{Interval: time.Minute}, svc, newCalendar(t), fixedClock{}, zap.NewNop())

	assert.Zero(t, w.Tick(context.Background(), at("2025-12-10 12:00")))
	require.Len(t, svc.calls, 1)
	assert.Zero(t, svc.calls[0].location)
	assert.Equal(t, at("2025-12-07 00:00"), svc.calls[0].start)
}

func TestWorkerManager_Lifecycle(t *testing.T) {
	var ticks atomic.Int32
	l := &loop{
		name:     "counter",
		interval: time.Millisecond,
		fn:       func(context.Context, time.Time) { ticks.Add(1) },
		now:      time.Now,
		logger:   zap.NewNop(),
	}

	m := NewWorkerManager(zap.NewNop())
	m.Register(l)
	assert.Equal(t, 1, m.GetWorkerCount())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	require.Eventually(t, func() bool { return ticks.Load() > 0 }, time.Second, time.Millisecond)

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	stopped := ticks.Load()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())

	require.NoError(t, m.StopAll())
}

func TestLoop_RejectsNonPositiveInterval(t *testing.T) {
	l := &loop{name: "bad", logger: zap.NewNop()}
	assert.Error(t, l.Start(context.Background()))
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/memstore"
	"github.com/stretchr/testify/require"
)

var chicago = mustLoad("America/Chicago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func localTime(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, chicago)
	if err != nil {
		panic(err)
	}
	return t
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time           { return c.now }
func (c *fixedClock) Location() *time.Location { return chicago }

type fakeProvider struct {
	batch   *port.ProviderBatch
	err     error
	queries []port.ProviderQuery
	// windowed drops times that start outside the query window
	windowed bool
}

func (p *fakeProvider) FetchTimes(ctx context.Context, q port.ProviderQuery) (*port.ProviderBatch, error) {
	p.queries = append(p.queries, q)
	if p.err != nil {
		return nil, p.err
	}
	if !p.windowed {
		return p.batch, nil
	}
	filtered := *p.batch
	filtered.Times = nil
	for _, t := range p.batch.Times {
		start, err := time.Parse(time.RFC3339, t.StartTime)
		if err != nil || start.Before(q.Start) || start.After(q.End) {
			continue
		}
		filtered.Times = append(filtered.Times, t)
	}
	return &filtered, nil
}

type recordingNotifier struct {
	reports []*entity.ApprovalReport
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, report *entity.ApprovalReport) error {
	n.reports = append(n.reports, report)
	return n.err
}

type fixture struct {
	store    *memstore.Store
	clock    *fixedClock
	provider *fakeProvider
	deps     Deps
	sync     SyncService
	approval ApprovalService
	query    QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clock := &fixedClock{now: localTime("2025-12-10 12:00")}
	provider := &fakeProvider{batch: &port.ProviderBatch{}}

	anchor, err := period.ParseDate("2024-01-07", chicago)
	require.NoError(t, err)
	calendar, err := period.NewCalendar(anchor, 14, chicago)
	require.NoError(t, err)

	deps := Deps{
		TxManager:  store,
		Timesheets: store.Timesheets(),
		Entries:    store.Entries(),
		Flags:      store.Flags(),
		EditLogs:   store.EditLogs(),
		Provider:   provider,
		Calendar:   calendar,
		Clock:      clock,
		Logger:     NopLogger(),
	}
	sync := NewSyncService(deps)
	return &fixture{
		store:    store,
		clock:    clock,
		provider: provider,
		deps:     deps,
		sync:     sync,
		approval: NewApprovalService(deps, sync),
		query:    NewQueryService(deps),
	}
}

// rec describes one provider time record in local wall-clock terms.
// Empty In/Out mean absent; empty SchedIn means no linked shift.
type rec struct {
	ID       int64
	User     int64
	Site     int64
	In       string
	Out      string
	SchedIn  string
	SchedOut string
	Break    int
}

func utc(local string) string {
	if local == "" {
		return ""
	}
	return localTime(local).UTC().Format(time.RFC3339)
}

func batchOf(recs ...rec) *port.ProviderBatch {
	b := &port.ProviderBatch{
		Sites: []port.ProviderSite{{ID: 3, Name: "Riverside"}, {ID: 4, Name: "Lakeview"}},
		Users: []port.ProviderUser{
			{ID: 11, FirstName: "Dana", LastName: "Reyes"},
			{ID: 12, FirstName: "Sam", LastName: "Ortiz"},
		},
	}
	for _, r := range recs {
		site := r.Site
		if site == 0 {
			site = 3
		}
		brk := r.Break
		t := port.ProviderTime{
			ID:           r.ID,
			UserID:       r.User,
			SiteID:       site,
			StartTime:    utc(r.In),
			EndTime:      utc(r.Out),
			BreakMinutes: &brk,
		}
		if r.SchedIn != "" {
			t.ShiftID = r.ID + 1000
			b.Shifts = append(b.Shifts, port.ProviderShift{
				ID:        t.ShiftID,
				UserID:    r.User,
				SiteID:    site,
				StartTime: utc(r.SchedIn),
				EndTime:   utc(r.SchedOut),
			})
		}
		b.Times = append(b.Times, t)
	}
	return b
}

// standard is the worked example: 08:58 to 17:03 with a 30 minute break
// against a 09:00 to 17:00 shift
func standard(id int64, day string) rec {
	return rec{
		ID:       id,
		User:     11,
		In:       day + " 08:58",
		Out:      day + " 17:03",
		SchedIn:  day + " 09:00",
		SchedOut: day + " 17:00",
		Break:    30,
	}
}

func (f *fixture) seed(t *testing.T, recs ...rec) {
	t.Helper()
	_, err := f.sync.SyncBatch(context.Background(), batchOf(recs...), SyncOptions{})
	require.NoError(t, err)
}

func (f *fixture) entry(t *testing.T, wiwTimeID int64) *entity.TimesheetEntry {
	t.Helper()
	e, err := f.deps.Entries.GetByTimeID(context.Background(), wiwTimeID)
	require.NoError(t, err)
	return e
}

func (f *fixture) header(t *testing.T, id int64) *entity.Timesheet {
	t.Helper()
	ts, err := f.deps.Timesheets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ts
}

func (f *fixture) activeFlags(wiwTimeID int64) []int {
	var types []int
	for _, fl := range f.store.AllFlags() {
		if fl.WiwTimeID == wiwTimeID && fl.IsActive() {
			types = append(types, int(fl.Type))
		}
	}
	return types
}

func (f *fixture) logTypes() []string {
	var types []string
	for _, row := range f.store.AllLogs() {
		types = append(types, row.EditType)
	}
	return types
}

var (
	admin  = entity.Actor{UserID: 1, Login: "admin", DisplayName: "Pat Admin", Role: entity.RoleAdmin}
	client = entity.Actor{UserID: 2, Login: "riverside", DisplayName: "Riverside Manager", Role: entity.RoleClient, LocationID: 3}
	other  = entity.Actor{UserID: 3, Login: "lakeview", DisplayName: "Lakeview Manager", Role: entity.RoleClient, LocationID: 4}
)

func strPtr(s string) *string { return &s }

func minutes(s string) *MinutesInput {
	m := MinutesInput(s)
	return &m
}

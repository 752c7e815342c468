package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/memstore"
)

var chicago = func() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
	return loc
}()

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time           { return c.now }
func (c fixedClock) Location() *time.Location { return chicago }

type stubProvider struct {
	batch   *port.ProviderBatch
	queries []port.ProviderQuery
}

func (p *stubProvider) FetchTimes(ctx context.Context, q port.ProviderQuery) (*port.ProviderBatch, error) {
	p.queries = append(p.queries, q)
	return p.batch, nil
}

var (
	adminActor  = entity.Actor{UserID: 1, Login: "admin", DisplayName: "Pat Admin", Role: entity.RoleAdmin}
	clientActor = entity.Actor{UserID: 2, Login: "riverside", DisplayName: "Riverside Manager", Role: entity.RoleClient, LocationID: 3}
	otherActor  = entity.Actor{UserID: 3, Login: "lakeview", DisplayName: "Lakeview Manager", Role: entity.RoleClient, LocationID: 4}
)

func at(local string) string {
	t, err := time.ParseInLocation("2006-01-02 15:04", local, chicago)
	if err != nil {
		panic(err)
	}
	return t.UTC().Format(time.RFC3339)
}

func testBatch() *port.ProviderBatch {
	brk := 30
	return &port.ProviderBatch{
		Times: []port.ProviderTime{{
			ID: 501, UserID: 11, ShiftID: 1501, SiteID: 3,
			StartTime: at("2025-12-03 08:58"), EndTime: at("2025-12-03 17:03"), BreakMinutes: &brk,
		}},
		Shifts: []port.ProviderShift{{
			ID: 1501, UserID: 11, SiteID: 3,
			StartTime: at("2025-12-03 09:00"), EndTime: at("2025-12-03 17:00"),
		}},
		Sites: []port.ProviderSite{{ID: 3, Name: "Riverside"}},
		Users: []port.ProviderUser{{ID: 11, FirstName: "Dana", LastName: "Reyes"}},
	}
}

type apiFixture struct {
	store    *memstore.Store
	provider *stubProvider
	auth     *Authenticator
	router   *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	provider := &stubProvider{batch: testBatch()}
	anchor, err := period.ParseDate("2024-01-07", chicago)
	require.NoError(t, err)
	calendar, err := period.NewCalendar(anchor, 14, chicago)
	require.NoError(t, err)

	deps := service.Deps{
		TxManager:  store,
		Timesheets: store.Timesheets(),
		Entries:    store.Entries(),
		Flags:      store.Flags(),
		EditLogs:   store.EditLogs(),
		Provider:   provider,
		Calendar:   calendar,
		Clock:      fixedClock{now: time.Date(2025, 12, 10, 12, 0, 0, 0, chicago)},
		Logger:     service.NopLogger(),
	}
	sync := service.NewSyncService(deps)
	_, err = sync.SyncBatch(context.Background(), testBatch(), service.SyncOptions{})
	require.NoError(t, err)

	auth := NewAuthenticator("test-secret", time.Hour)
	server := NewServer(DefaultServerConfig(), Services{
		Approval:     service.NewApprovalService(deps, sync),
		Query:        service.NewQueryService(deps),
		Sync:         sync,
		AutoApproval: service.NewAutoApprovalService(deps, nil),
	}, auth, chicago, service.NopLogger())

	return &apiFixture{store: store, provider: provider, auth: auth, router: server.Router()}
}

func (f *apiFixture) do(t *testing.T, actor *entity.Actor, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		token, err := f.auth.Issue(*actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func (f *apiFixture) entryID(t *testing.T) int64 {
	t.Helper()
	entries := f.store.AllEntries()
	require.Len(t, entries, 1)
	return entries[0].ID
}

func TestHealthCheckIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	w, resp := f.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestAPIRequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, nil, http.MethodGet, "/api/timesheets", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing bearer token", resp.Error)

	req := httptest.NewRequest(http.MethodGet, "/api/timesheets", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTimesheetsScopedToLocation(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, &clientActor, http.MethodGet, "/api/timesheets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)

	w, resp = f.do(t, &otherActor, http.MethodGet, "/api/timesheets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Data)

	w, _ = f.do(t, &adminActor, http.MethodGet, "/api/timesheets?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTimesheetNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, &adminActor, http.MethodGet, "/api/timesheets/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, service.MsgTimesheetNotFound, resp.Error)

	w, _ = f.do(t, &adminActor, http.MethodGet, "/api/timesheets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApproveAndUnapproveEntry(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/entries/" + itoa(f.entryID(t))

	w, resp := f.do(t, &clientActor, http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.Equal(t, entity.EntryApproved, f.store.AllEntries()[0].Status)

	w, resp = f.do(t, &clientActor, http.MethodPost, path+"/unapprove", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.MsgAdminOnlyUnapprove, resp.Error)

	w, _ = f.do(t, &adminActor, http.MethodPost, path+"/unapprove", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.EntryPending, f.store.AllEntries()[0].Status)
}

func TestApproveEntryOtherLocation(t *testing.T) {
	f := newAPIFixture(t)
	w, resp := f.do(t, &otherActor, http.MethodPost, "/api/entries/"+itoa(f.entryID(t))+"/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.MsgEntryWrongLocation, resp.Error)
}

func TestEditEntryValidation(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/entries/" + itoa(f.entryID(t))

	w, resp := f.do(t, &clientActor, http.MethodPatch, path, map[string]string{"break_minutes": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgBreakMinutes, resp.Error)

	w, resp = f.do(t, &clientActor, http.MethodPatch, path, map[string]interface{}{"break_minutes": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgBreakMinutes, resp.Error)

	w, resp = f.do(t, &clientActor, http.MethodPatch, path, map[string]interface{}{"break_minutes": 12.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgBreakMinutes, resp.Error)

	w, resp = f.do(t, &clientActor, http.MethodPatch, path, map[string]interface{}{"break_minutes": 45})
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.Equal(t, 45, f.store.AllEntries()[0].BreakMinutes)

	w, resp = f.do(t, &clientActor, http.MethodPatch, path, map[string]string{"break_minutes": "40"})
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.Equal(t, 40, f.store.AllEntries()[0].BreakMinutes)

	w, resp = f.do(t, &clientActor, http.MethodPatch, path, map[string]string{"clock_out": "17:00"})
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.True(t, f.store.AllEntries()[0].LocallyEdited)
}

func TestDecideExtraTime(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, &clientActor, http.MethodPost, "/api/time-records/501/extra-time", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := f.do(t, &clientActor, http.MethodPost, "/api/time-records/501/extra-time", map[string]string{"decision": "confirm"})
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.Equal(t, entity.ExtraTimeConfirmed, f.store.AllEntries()[0].ExtraTimeStatus)

	w, resp = f.do(t, &clientActor, http.MethodPost, "/api/time-records/501/extra-time", map[string]string{"decision": "deny"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.MsgExtraTimeDecided, resp.Error)
}

func TestFinalizeRequiresApprovedEntries(t *testing.T) {
	f := newAPIFixture(t)
	entry := f.store.AllEntries()[0]
	tsPath := "/api/timesheets/" + itoa(entry.TimesheetID)

	w, resp := f.do(t, &clientActor, http.MethodPost, tsPath+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.MsgNotAllApproved, resp.Error)

	w, _ = f.do(t, &clientActor, http.MethodPost, "/api/entries/"+itoa(entry.ID)+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, &clientActor, http.MethodPost, tsPath+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code, resp.Error)

	w, resp = f.do(t, &clientActor, http.MethodGet, tsPath+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	assert.NotEmpty(t, resp.Data)
}

func TestAdminRoutes(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"location_id": 3, "start": "2025-11-23", "end": "2025-12-06"}

	w, _ := f.do(t, &clientActor, http.MethodPost, "/api/admin/sync", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := f.do(t, &adminActor, http.MethodPost, "/api/admin/sync", body)
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	require.Len(t, f.provider.queries, 1)
	assert.Equal(t, int64(3), f.provider.queries[0].LocationID)

	w, _ = f.do(t, &adminActor, http.MethodPost, "/api/admin/sync", map[string]interface{}{"start": "2025-12-06", "end": "2025-11-23"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = f.do(t, &adminActor, http.MethodPost, "/api/admin/auto-approval", map[string]bool{"dry_run": true})
	require.Equal(t, http.StatusOK, w.Code, resp.Error)
	report, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, report["dry_run"])
	assert.Equal(t, entity.EntryPending, f.store.AllEntries()[0].Status)
}

func TestDeadline(t *testing.T) {
	f := newAPIFixture(t)
	w, resp := f.do(t, &clientActor, http.MethodGet, "/api/deadline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(data["week_start"].(string), "2025-11-30"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

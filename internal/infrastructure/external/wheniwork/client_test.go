package wheniwork

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const timesBody = `{
  "times": [
    {"id": 9001, "user_id": 11, "shift_id": 1001, "site_id": 3,
     "start_time": "Mon, 08 Dec 2025 08:58:00 -0600", "end_time": "Mon, 08 Dec 2025 17:03:00 -0600",
     "break_time": 0.5},
    {"id": 9002, "user_id": 12, "site_id": 4, "start_time": "Mon, 08 Dec 2025 09:00:00 -0600", "end_time": ""}
  ],
  "shifts": [
    {"id": 1001, "user_id": 11, "site_id": 3,
     "start_time": "Mon, 08 Dec 2025 09:00:00 -0600", "end_time": "Mon, 08 Dec 2025 17:00:00 -0600",
     "break_time": 0.25}
  ],
  "sites": [{"id": 3, "name": "Riverside", "address": "1 River Rd"}],
  "users": [{"id": 11, "first_name": "Dana", "last_name": "Reyes"}]
}`

func TestClient_FetchTimes(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timesBody))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", Token: "secret"}, zap.NewNop())
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	batch, err := client.FetchTimes(context.Background(), port.ProviderQuery{
		Start:      time.Date(2025, 12, 7, 0, 0, 0, 0, loc),
		End:        time.Date(2025, 12, 20, 0, 0, 0, 0, loc),
		LocationID: 3,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/times", got.URL.Path)
	assert.Equal(t, "secret", got.Header.Get("W-Token"))
	assert.Equal(t, "2025-12-07 00:00:00", got.URL.Query().Get("start"))
	assert.Equal(t, "3", got.URL.Query().Get("site_id"))
	assert.Empty(t, got.URL.Query().Get("user_id"))

	require.Len(t, batch.Times, 2)
	require.NotNil(t, batch.Times[0].BreakMinutes)
	assert.Equal(t, 30, *batch.Times[0].BreakMinutes)
	assert.Nil(t, batch.Times[1].BreakMinutes)
	assert.Equal(t, int64(1001), batch.Times[0].ShiftID)
	assert.Equal(t, 15, batch.Shifts[0].BreakMinutes)
	assert.Equal(t, "Riverside", batch.Sites[0].Name)
	assert.Equal(t, "Reyes", batch.Users[0].LastName)
}

func TestClient_FetchTimesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid token", "code": 1000}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	_, err := client.FetchTimes(context.Background(), port.ProviderQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestBreakMinutes(t *testing.T) {
	assert.Equal(t, 30, breakMinutes(0.5))
	assert.Equal(t, 20, breakMinutes(0.3333))
	assert.Equal(t, 0, breakMinutes(-1))
}

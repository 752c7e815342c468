package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadChicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func day(t *testing.T, s string, loc *time.Location) time.Time {
	t.Helper()
	d, err := ParseDate(s, loc)
	require.NoError(t, err)
	return d
}

func TestNewCalendar_Validation(t *testing.T) {
	loc := loadChicago(t)

	_, err := NewCalendar(day(t, "2024-01-08", loc), 14, loc)
	assert.Error(t, err, "Monday anchor")

	_, err = NewCalendar(day(t, "2024-01-07", loc), 10, loc)
	assert.Error(t, err, "length not whole weeks")

	_, err = NewCalendar(day(t, "2024-01-07", loc), 14, nil)
	assert.Error(t, err, "missing zone")

	cal, err := NewCalendar(day(t, "2024-01-07", loc), 14, loc)
	require.NoError(t, err)
	assert.Equal(t, 14, cal.LengthDays())
}

func TestCalendar_Bucket(t *testing.T) {
	loc := loadChicago(t)
	cal, err := NewCalendar(day(t, "2024-01-07", loc), 14, loc)
	require.NoError(t, err)

	tests := []struct {
		name  string
		date  string
		start string
		end   string
	}{
		{"anchor itself", "2024-01-07", "2024-01-07", "2024-01-20"},
		{"second week of anchor period", "2024-01-16", "2024-01-07", "2024-01-20"},
		{"next period", "2024-01-21", "2024-01-21", "2024-02-03"},
		{"before anchor", "2024-01-06", "2023-12-24", "2024-01-06"},
		{"far history", "2023-03-15", "2023-03-05", "2023-03-18"},
		{"later year", "2025-12-08", "2025-12-07", "2025-12-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cal.Bucket(day(t, tt.date, loc))
			assert.Equal(t, tt.start, p.Start.Format("2006-01-02"))
			assert.Equal(t, tt.end, p.End.Format("2006-01-02"))
			assert.True(t, p.Contains(day(t, tt.date, loc)))
		})
	}
}

func TestCalendar_BucketIsStable(t *testing.T) {
	loc := loadChicago(t)
	cal, err := NewCalendar(day(t, "2024-01-07", loc), 14, loc)
	require.NoError(t, err)

	// every date in a period maps back to the same start
	p := cal.Bucket(day(t, "2024-03-10", loc))
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, p.Start, cal.Bucket(d).Start, d.Format("2006-01-02"))
	}
}

func TestCalendar_WeeklyPeriods(t *testing.T) {
	loc := loadChicago(t)
	cal, err := NewCalendar(day(t, "2024-01-07", loc), 7, loc)
	require.NoError(t, err)

	p := cal.Bucket(day(t, "2024-01-17", loc))
	assert.Equal(t, "2024-01-14", p.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-20", p.End.Format("2006-01-02"))
}

func TestPeriod_LastInstant(t *testing.T) {
	loc := loadChicago(t)
	cal, err := NewCalendar(day(t, "2024-01-07", loc), 14, loc)
	require.NoError(t, err)

	p := cal.Bucket(day(t, "2025-12-10", loc))
	last := p.LastInstant()
	assert.Equal(t, "2025-12-20 23:59:59", last.Format("2006-01-02 15:04:05"))
	assert.True(t, p.Contains(last))
	assert.False(t, p.Contains(last.Add(time.Second)))

	// DST ends 2025-11-02 in Chicago
	fallBack := EndOfDay(time.Date(2025, 11, 2, 1, 30, 0, 0, loc), loc)
	assert.Equal(t, "2025-11-02 23:59:59", fallBack.Format("2006-01-02 15:04:05"))
}

func TestWindowAt(t *testing.T) {
	loc := loadChicago(t)

	tests := []struct {
		name         string
		now          time.Time
		weekStart    string
		cutoff       string
		nextDeadline string
	}{
		{
			name:         "monday morning uses week before last",
			now:          time.Date(2025, 12, 15, 9, 0, 0, 0, loc),
			weekStart:    "2025-11-30",
			cutoff:       "2025-12-07",
			nextDeadline: "2025-12-16 08:00",
		},
		{
			name:         "tuesday just before rollover",
			now:          time.Date(2025, 12, 16, 7, 59, 0, 0, loc),
			weekStart:    "2025-11-30",
			cutoff:       "2025-12-07",
			nextDeadline: "2025-12-16 08:00",
		},
		{
			name:         "tuesday at rollover",
			now:          time.Date(2025, 12, 16, 8, 0, 0, 0, loc),
			weekStart:    "2025-12-07",
			cutoff:       "2025-12-14",
			nextDeadline: "2025-12-23 08:00",
		},
		{
			name:         "saturday",
			now:          time.Date(2025, 12, 20, 23, 0, 0, 0, loc),
			weekStart:    "2025-12-07",
			cutoff:       "2025-12-14",
			nextDeadline: "2025-12-23 08:00",
		},
		{
			name:         "sunday",
			now:          time.Date(2025, 12, 21, 10, 0, 0, 0, loc),
			weekStart:    "2025-12-07",
			cutoff:       "2025-12-14",
			nextDeadline: "2025-12-23 08:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WindowAt(tt.now, loc)
			assert.Equal(t, tt.weekStart, w.WeekStart.Format("2006-01-02"))
			assert.Equal(t, tt.cutoff, w.Cutoff.Format("2006-01-02"))
			assert.Equal(t, tt.nextDeadline, w.NextDeadline.Format("2006-01-02 15:04"))
		})
	}
}

func TestWindowAt_PastDue(t *testing.T) {
	loc := loadChicago(t)
	w := WindowAt(time.Date(2025, 12, 15, 9, 0, 0, 0, loc), loc)

	assert.True(t, w.IsPastDue(day(t, "2025-12-03", loc)), "wednesday of the approval week")
	assert.True(t, w.IsPastDue(day(t, "2025-12-06", loc)))
	assert.False(t, w.IsPastDue(day(t, "2025-12-07", loc)), "cutoff day itself")
	assert.False(t, w.IsPastDue(day(t, "2025-12-08", loc)), "day after the cutoff")
	assert.Equal(t, "2025-12-06", w.WeekEnd().Format("2006-01-02"))
}

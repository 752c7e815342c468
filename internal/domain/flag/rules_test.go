package flag

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(hhmm string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-12-08 "+hhmm)
	if err != nil {
		panic(err)
	}
	return &t
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func scheduled() Snapshot {
	return Snapshot{
		ClockIn:        clock("09:00"),
		ClockOut:       clock("17:00"),
		ScheduledStart: clock("09:00"),
		ScheduledEnd:   clock("17:00"),
		ScheduledHours: dec("8.00"),
		PayableHours:   dec("8.00"),
		ExtraTimeUnset: true,
	}
}

func TestEvaluate_CleanShift(t *testing.T) {
	assert.Empty(t, Active(scheduled()))

	desired := Evaluate(scheduled())
	require.Len(t, desired, len(Catalog))
	for _, typ := range Catalog {
		assert.Equal(t, StatusResolved, desired[typ], typ.String())
	}
}

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *Snapshot)
		expected []Type
	}{
		{
			name:     "clocked out early",
			mutate:   func(s *Snapshot) { s.ClockOut = clock("16:30"); s.PayableHours = dec("7.50") },
			expected: []Type{TypeEarlyClockOut, TypeScheduleMismatch},
		},
		{
			name:     "late clock in at exactly tolerance",
			mutate:   func(s *Snapshot) { s.ClockIn = clock("09:15"); s.PayableHours = dec("7.75") },
			expected: []Type{TypeScheduleMismatch},
		},
		{
			name:     "late clock in past tolerance",
			mutate:   func(s *Snapshot) { s.ClockIn = clock("09:16"); s.PayableHours = dec("7.73") },
			expected: []Type{TypeLateClockIn, TypeScheduleMismatch},
		},
		{
			name:     "late clock out at exactly tolerance",
			mutate:   func(s *Snapshot) { s.ClockOut = clock("17:15"); s.AdditionalHours = decimal.RequireFromString("0.25") },
			expected: []Type{TypeUnconfirmedExtra},
		},
		{
			name:     "late clock out twenty minutes",
			mutate:   func(s *Snapshot) { s.ClockOut = clock("17:20"); s.AdditionalHours = decimal.RequireFromString("0.33") },
			expected: []Type{TypeLateClockOut, TypeUnconfirmedExtra},
		},
		{
			name: "late clock out after decision",
			mutate: func(s *Snapshot) {
				s.ClockOut = clock("17:20")
				s.AdditionalHours = decimal.RequireFromString("0.33")
				s.ExtraTimeUnset = false
			},
			expected: nil,
		},
		{
			name:     "missing clock in",
			mutate:   func(s *Snapshot) { s.ClockIn = nil; s.PayableHours = dec("0") },
			expected: []Type{TypeMissingClockIn, TypeScheduleMismatch},
		},
		{
			name:     "missing clock out",
			mutate:   func(s *Snapshot) { s.ClockOut = nil; s.PayableHours = dec("0") },
			expected: []Type{TypeMissingClockOut, TypeScheduleMismatch},
		},
		{
			name:     "additional at threshold",
			mutate:   func(s *Snapshot) { s.AdditionalHours = decimal.RequireFromString("0.01") },
			expected: nil,
		},
		{
			name:     "no schedule means no mismatch",
			mutate:   func(s *Snapshot) { s.ScheduledStart, s.ScheduledEnd, s.ScheduledHours = nil, nil, nil },
			expected: nil,
		},
		{
			name:     "mismatch compares at two decimals",
			mutate:   func(s *Snapshot) { s.PayableHours = dec("8.001") },
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scheduled()
			tt.mutate(&s)
			assert.Equal(t, tt.expected, Active(s))
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("107")
	require.NoError(t, err)
	assert.Equal(t, TypeUnconfirmedExtra, typ)

	typ, err = ParseType("107-additional")
	require.NoError(t, err)
	assert.Equal(t, TypeUnconfirmedExtra, typ)

	_, err = ParseType("108")
	assert.Error(t, err)

	_, err = ParseType("abc")
	assert.Error(t, err)
}

func TestDescriptions(t *testing.T) {
	for _, typ := range Catalog {
		assert.NotEmpty(t, typ.Description(), typ.String())
	}
	assert.Equal(t, "Missing clock out", TypeMissingClockOut.Description())
}

func TestEvaluate_LateClockOutUsesRawDuration(t *testing.T) {
	s := scheduled()
	out := clock("17:15").Add(10 * time.Second)
	s.ClockOut = &out
	s.AdditionalHours = decimal.RequireFromString("0.25")

	assert.Equal(t, []Type{TypeLateClockOut, TypeUnconfirmedExtra}, Active(s))

	s.ExtraTimeUnset = false
	assert.NotContains(t, Active(s), TypeLateClockOut)
}

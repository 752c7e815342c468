// Package timemath computes hour spans for timesheet entries.
//
// All inputs are local wall-clock times already resolved to the configured
// zone. Absent values are nil pointers; every function degrades to zero hours
// instead of failing.
package timemath

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LocalLayout is the canonical on-disk form of a local naive datetime
const LocalLayout = "2006-01-02 15:04:05"

// DateLayout is the canonical on-disk form of a local date
const DateLayout = "2006-01-02"

var (
	minutesPerHour   = decimal.NewFromInt(60)
	secondsPerMinute = decimal.NewFromInt(60)

	// Zero is the canonical 0.00 hours value
	Zero = decimal.Zero.Round(2)
)

var parseLayouts = []string{
	LocalLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseLocal parses a local naive datetime in loc. Blank or unparsable input
// yields nil.
func ParseLocal(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		local := t.In(loc)
		return &local
	}
	return nil
}

// FormatLocal renders t in the canonical local layout; nil renders empty.
func FormatLocal(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(LocalLayout)
}

// Hours converts minutes to hours rounded half-up to two decimals.
func Hours(minutes decimal.Decimal) decimal.Decimal {
	return minutes.Div(minutesPerHour).Round(2)
}

// RoundHours rounds an hour amount half-up to two decimals.
func RoundHours(h decimal.Decimal) decimal.Decimal {
	return h.Round(2)
}

func spanMinutes(from, to time.Time) decimal.Decimal {
	seconds := int64(to.Sub(from) / time.Second)
	return decimal.NewFromInt(seconds).Div(secondsPerMinute)
}

func workedHours(start, end time.Time, breakMinutes int) decimal.Decimal {
	if !end.After(start) {
		return Zero
	}
	minutes := spanMinutes(start, end).Sub(decimal.NewFromInt(int64(breakMinutes)))
	if minutes.IsNegative() {
		return Zero
	}
	return Hours(minutes)
}

// ClockedHours returns (clockOut - clockIn - break) in hours, or 0.00 when
// either clock is absent or clockOut is not after clockIn.
func ClockedHours(clockIn, clockOut *time.Time, breakMinutes int) decimal.Decimal {
	if clockIn == nil || clockOut == nil {
		return Zero
	}
	return workedHours(*clockIn, *clockOut, breakMinutes)
}

// PayableHours clamps the worked window to whichever scheduled bounds are
// present, then deducts the break like ClockedHours.
func PayableHours(clockIn, clockOut *time.Time, breakMinutes int, scheduledStart, scheduledEnd *time.Time) decimal.Decimal {
	if clockIn == nil || clockOut == nil {
		return Zero
	}
	start, end := *clockIn, *clockOut
	if scheduledStart != nil && scheduledStart.After(start) {
		start = *scheduledStart
	}
	if scheduledEnd != nil && scheduledEnd.Before(end) {
		end = *scheduledEnd
	}
	return workedHours(start, end, breakMinutes)
}

// AdditionalHours returns the time worked past the scheduled end.
func AdditionalHours(clockOut, scheduledEnd *time.Time) decimal.Decimal {
	if clockOut == nil || scheduledEnd == nil || !clockOut.After(*scheduledEnd) {
		return Zero
	}
	return Hours(spanMinutes(*scheduledEnd, *clockOut))
}

// ScheduledHours returns the shift length less its unpaid break.
func ScheduledHours(scheduledStart, scheduledEnd *time.Time, breakMinutes int) decimal.Decimal {
	if scheduledStart == nil || scheduledEnd == nil {
		return Zero
	}
	return workedHours(*scheduledStart, *scheduledEnd, breakMinutes)
}

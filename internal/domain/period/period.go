// Package period buckets local dates into pay periods and derives the weekly
// approval cutoff.
package period

import (
	"fmt"
	"time"
)

// Period is an inclusive range of local dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the date of t falls inside the period
func (p Period) Contains(t time.Time) bool {
	d := dayNumber(t)
	return d >= dayNumber(p.Start) && d <= dayNumber(p.End)
}

// Calendar maps dates to fixed-length pay periods anchored on a Sunday.
type Calendar struct {
	anchor     time.Time
	lengthDays int
	loc        *time.Location
}

// NewCalendar creates a pay-period calendar. The anchor must be a Sunday and
// the length a positive number of whole weeks.
func NewCalendar(anchor time.Time, lengthDays int, loc *time.Location) (*Calendar, error) {
	if loc == nil {
		return nil, fmt.Errorf("time zone is required")
	}
	if anchor.Weekday() != time.Sunday {
		return nil, fmt.Errorf("pay period anchor %s is a %s, not a Sunday", anchor.Format("2006-01-02"), anchor.Weekday())
	}
	if lengthDays <= 0 || lengthDays%7 != 0 {
		return nil, fmt.Errorf("pay period length must be a positive multiple of 7 days, got %d", lengthDays)
	}
	return &Calendar{
		anchor:     Date(anchor, loc),
		lengthDays: lengthDays,
		loc:        loc,
	}, nil
}

// Location returns the calendar's time zone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// LengthDays returns the configured period length
func (c *Calendar) LengthDays() int {
	return c.lengthDays
}

// Bucket returns the pay period containing the local date of t.
func (c *Calendar) Bucket(t time.Time) Period {
	sunday := WeekStart(t, c.loc)
	offset := dayNumber(sunday) - dayNumber(c.anchor)
	k := floorDiv(offset, int64(c.lengthDays))
	start := c.anchor.AddDate(0, 0, int(k)*c.lengthDays)
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, c.lengthDays-1),
	}
}

// Date truncates t to local midnight in loc
func Date(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last second of the local date of t
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return Date(t, loc).AddDate(0, 0, 1).Add(-time.Second)
}

// LastInstant returns the inclusive upper bound of the period for queries
// that compare instants rather than dates
func (p Period) LastInstant() time.Time {
	return EndOfDay(p.End, p.End.Location())
}

// WeekStart returns local midnight of the Sunday on or before t
func WeekStart(t time.Time, loc *time.Location) time.Time {
	d := Date(t, loc)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ParseDate parses a YYYY-MM-DD local date
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// dayNumber counts civil days so DST shifts never skew the arithmetic.
func dayNumber(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

package period

import "time"

const (
	rolloverWeekday = time.Tuesday
	rolloverHour    = 8
)

// ApprovalWindow is the weekly auto-approval boundary as seen at Now.
//
// Before the Tuesday 08:00 rollover the approval week is the week before
// last; from the rollover on it is last week. Entries dated before Cutoff
// are past due.
type ApprovalWindow struct {
	Now          time.Time
	WeekStart    time.Time
	Cutoff       time.Time
	NextDeadline time.Time
}

// WindowAt computes the approval window for now in loc.
func WindowAt(now time.Time, loc *time.Location) ApprovalWindow {
	now = now.In(loc)
	base := WeekStart(now, loc)
	rollover := time.Date(base.Year(), base.Month(), base.Day()+int(rolloverWeekday), rolloverHour, 0, 0, 0, loc)

	w := ApprovalWindow{Now: now}
	if now.Before(rollover) {
		w.WeekStart = base.AddDate(0, 0, -14)
		w.NextDeadline = rollover
	} else {
		w.WeekStart = base.AddDate(0, 0, -7)
		w.NextDeadline = rollover.AddDate(0, 0, 7)
	}
	w.Cutoff = w.WeekStart.AddDate(0, 0, 7)
	return w
}

// IsPastDue reports whether an entry dated d is before the cutoff.
func (w ApprovalWindow) IsPastDue(d time.Time) bool {
	return dayNumber(d.In(w.Cutoff.Location())) < dayNumber(w.Cutoff)
}

// WeekEnd returns the last date of the approval week
func (w ApprovalWindow) WeekEnd() time.Time {
	return w.Cutoff.AddDate(0, 0, -1)
}

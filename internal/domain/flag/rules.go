package flag

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the grace allowed past a scheduled boundary before a late
// clock-in or clock-out is flagged. Exactly 15 minutes is not late.
const Tolerance = 15 * time.Minute

var additionalThreshold = decimal.RequireFromString("0.01")

// Snapshot is the slice of an entry the rules look at.
type Snapshot struct {
	ClockIn         *time.Time
	ClockOut        *time.Time
	ScheduledStart  *time.Time
	ScheduledEnd    *time.Time
	ScheduledHours  *decimal.Decimal
	PayableHours    *decimal.Decimal
	AdditionalHours decimal.Decimal
	ExtraTimeUnset  bool
}

// Evaluate returns the desired status of every catalog type.
func Evaluate(s Snapshot) map[Type]Status {
	desired := make(map[Type]Status, len(Catalog))
	for _, t := range Catalog {
		desired[t] = status(active(t, s))
	}
	return desired
}

// Active returns the catalog types whose desired status is active, in
// catalog order.
func Active(s Snapshot) []Type {
	var types []Type
	for _, t := range Catalog {
		if active(t, s) {
			types = append(types, t)
		}
	}
	return types
}

func active(t Type, s Snapshot) bool {
	switch t {
	case TypeEarlyClockOut:
		return s.ClockOut != nil && s.ScheduledEnd != nil && s.ClockOut.Before(*s.ScheduledEnd)
	case TypeLateClockIn:
		return s.ClockIn != nil && s.ScheduledStart != nil && s.ClockIn.After(s.ScheduledStart.Add(Tolerance))
	case TypeLateClockOut:
		// a confirm or deny decision settles the late clock-out
		return lateClockOut(s) && s.ExtraTimeUnset
	case TypeMissingClockIn:
		return s.ClockIn == nil
	case TypeMissingClockOut:
		return s.ClockOut == nil
	case TypeUnconfirmedExtra:
		return s.AdditionalHours.GreaterThan(additionalThreshold) && s.ExtraTimeUnset
	case TypeScheduleMismatch:
		return s.ScheduledHours != nil && s.PayableHours != nil &&
			!s.ScheduledHours.Round(2).Equal(s.PayableHours.Round(2))
	}
	return false
}

func lateClockOut(s Snapshot) bool {
	return s.ClockOut != nil && s.ScheduledEnd != nil && s.ClockOut.After(s.ScheduledEnd.Add(Tolerance))
}

func status(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusResolved
}

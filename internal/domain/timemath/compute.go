package timemath

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inputs are the stored fields every derived hour value is computed from.
type Inputs struct {
	ClockIn               *time.Time
	ClockOut              *time.Time
	BreakMinutes          int
	ScheduledStart        *time.Time
	ScheduledEnd          *time.Time
	ScheduledBreakMinutes int
	ExtraTimeConfirmed    bool
}

// Result holds the derived hour values for one entry.
type Result struct {
	ScheduledHours  decimal.Decimal
	ClockedHours    decimal.Decimal
	PayableHours    decimal.Decimal
	AdditionalHours decimal.Decimal
}

// Compute derives all hour values. Confirmed extra time is added on top of
// the schedule-clamped payable hours.
func Compute(in Inputs) Result {
	r := Result{
		ScheduledHours:  ScheduledHours(in.ScheduledStart, in.ScheduledEnd, in.ScheduledBreakMinutes),
		ClockedHours:    ClockedHours(in.ClockIn, in.ClockOut, in.BreakMinutes),
		PayableHours:    PayableHours(in.ClockIn, in.ClockOut, in.BreakMinutes, in.ScheduledStart, in.ScheduledEnd),
		AdditionalHours: AdditionalHours(in.ClockOut, in.ScheduledEnd),
	}
	if in.ExtraTimeConfirmed {
		r.PayableHours = RoundHours(r.PayableHours.Add(r.AdditionalHours))
	}
	return r
}

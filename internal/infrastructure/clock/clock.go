// Package clock provides the zone-bound system clock.
package clock

import (
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
)

// System reads the wall clock and reports it in a fixed zone
type System struct {
	loc *time.Location
}

var _ port.Clock = (*System)(nil)

// New creates a clock for the named IANA zone
func New(zone string) (*System, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &System{loc: loc}, nil
}

func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *System) Location() *time.Location {
	return c.loc
}

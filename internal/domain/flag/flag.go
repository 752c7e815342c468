// Package flag holds the anomaly catalog for time records and the rules that
// decide which flags should be active.
package flag

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies an anomaly class
type Type int

const (
	TypeEarlyClockOut    Type = 102
	TypeLateClockIn      Type = 103
	TypeLateClockOut     Type = 104
	TypeMissingClockIn   Type = 105
	TypeMissingClockOut  Type = 106
	TypeUnconfirmedExtra Type = 107
	TypeScheduleMismatch Type = 109
)

// Catalog lists every flag type in evaluation order
var Catalog = []Type{
	TypeEarlyClockOut,
	TypeLateClockIn,
	TypeLateClockOut,
	TypeMissingClockIn,
	TypeMissingClockOut,
	TypeUnconfirmedExtra,
	TypeScheduleMismatch,
}

var descriptions = map[Type]string{
	TypeEarlyClockOut:    "Clocked out early",
	TypeLateClockIn:      "Clocked in late (more than 15 minutes)",
	TypeLateClockOut:     "Clocked out late (more than 15 minutes)",
	TypeMissingClockIn:   "Missing clock in",
	TypeMissingClockOut:  "Missing clock out",
	TypeUnconfirmedExtra: "Additional time awaiting confirmation",
	TypeScheduleMismatch: "Scheduled hours do not match payable hours",
}

// IsValid reports whether t is in the catalog
func (t Type) IsValid() bool {
	_, ok := descriptions[t]
	return ok
}

// Description returns the fixed human text for the flag type
func (t Type) Description() string {
	return descriptions[t]
}

func (t Type) String() string {
	return strconv.Itoa(int(t))
}

// ParseType reads a stored flag type. Historical rows may carry a suffix
// such as "107-additional"; only the leading code is significant.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid flag type %q", s)
	}
	t := Type(n)
	if !t.IsValid() {
		return 0, fmt.Errorf("unknown flag type %d", n)
	}
	return t, nil
}

// Status is the state of a stored flag
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusResolved
}

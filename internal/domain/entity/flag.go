package entity

import (
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/flag"
)

// Flag is a stored anomaly marker for one provider time record
type Flag struct {
	ID          int64       `json:"id"`
	WiwTimeID   int64       `json:"wiw_time_id"`
	Type        flag.Type   `json:"flag_type"`
	Description string      `json:"description"`
	Status      flag.Status `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsActive reports whether the flag is currently raised
func (f *Flag) IsActive() bool {
	return f.Status == flag.StatusActive
}

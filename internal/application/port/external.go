package port

import (
	"context"
	"time"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

// ProviderTime is a raw clock record from the scheduling provider.
// Timestamps are left unparsed; the sync engine validates them.
type ProviderTime struct {
	ID           int64  `json:"id" yaml:"id"`
	UserID       int64  `json:"user_id" yaml:"user_id"`
	ShiftID      int64  `json:"shift_id" yaml:"shift_id"`
	SiteID       int64  `json:"site_id" yaml:"site_id"`
	StartTime    string `json:"start_time" yaml:"start_time"`
	EndTime      string `json:"end_time" yaml:"end_time"`
	BreakMinutes *int   `json:"break_minutes" yaml:"break_minutes"`
}

// ProviderShift is a scheduled shift
type ProviderShift struct {
	ID           int64  `json:"id" yaml:"id"`
	UserID       int64  `json:"user_id" yaml:"user_id"`
	SiteID       int64  `json:"site_id" yaml:"site_id"`
	StartTime    string `json:"start_time" yaml:"start_time"`
	EndTime      string `json:"end_time" yaml:"end_time"`
	BreakMinutes int    `json:"break_minutes" yaml:"break_minutes"`
}

// ProviderSite is a work location
type ProviderSite struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// ProviderUser is an employee
type ProviderUser struct {
	ID        int64  `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
}

// ProviderBatch is a window of time records with their reference data
type ProviderBatch struct {
	Times  []ProviderTime  `json:"times" yaml:"times"`
	Shifts []ProviderShift `json:"shifts" yaml:"shifts"`
	Sites  []ProviderSite  `json:"sites" yaml:"sites"`
	Users  []ProviderUser  `json:"users" yaml:"users"`
}

// ProviderQuery selects a fetch window. Zero ids match everything.
type ProviderQuery struct {
	Start      time.Time
	End        time.Time
	LocationID int64
	UserID     int64
}

// SchedulingProvider reads time and shift data from the external scheduler
type SchedulingProvider interface {
	FetchTimes(ctx context.Context, q ProviderQuery) (*ProviderBatch, error)
}

// Notifier delivers an approval report
type Notifier interface {
	Notify(ctx context.Context, report *entity.ApprovalReport) error
}

// ReportRenderer turns a report into a downloadable workbook
type ReportRenderer interface {
	Render(report *entity.ApprovalReport) ([]byte, error)
}

// Clock supplies the current time in the configured zone
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

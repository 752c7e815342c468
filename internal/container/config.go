// Package container provides dependency injection and lifecycle management
// for the timesheet approval system.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// Values are already parsed; see config.ToContainerConfig.
type Config struct {
	Database     DatabaseConfig
	Location     *time.Location
	PayPeriod    PayPeriodConfig
	Provider     ProviderConfig
	AutoApproval AutoApprovalConfig
	Sync         SyncConfig
	Notification NotificationConfig
	Report       ReportConfig
	Server       ServerConfig
	Auth         AuthConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PayPeriodConfig anchors the pay-period grid.
type PayPeriodConfig struct {
	// Anchor is a Sunday at local midnight
	Anchor     time.Time
	LengthDays int
}

// ProviderConfig holds When I Work settings.
type ProviderConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// AutoApprovalConfig holds the weekly schedule.
type AutoApprovalConfig struct {
	Enabled       bool
	Weekday       time.Weekday
	Hour          int
	Minute        int
	CheckInterval time.Duration
}

// SyncConfig holds the provider poller settings.
type SyncConfig struct {
	Enabled         bool
	Interval        time.Duration
	LocationIDs     []int64
	LookbackPeriods int
}

// NotificationConfig lists the enabled report channels.
type NotificationConfig struct {
	Email *EmailConfig
	Slack *SlackConfig
	Lark  *LarkConfig
}

// EmailConfig holds SES settings.
type EmailConfig struct {
	Region string
	From   string
	To     []string
}

// SlackConfig holds Slack settings.
type SlackConfig struct {
	Token     string
	ChannelID string
}

// LarkConfig holds Lark settings.
type LarkConfig struct {
	AppID        string
	AppSecret    string
	ReceiveEmail string
}

// ReportConfig holds report storage settings. A bucket selects S3.
type ReportConfig struct {
	OutputDir string
	S3Bucket  string
	S3Region  string
	S3Prefix  string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds API token settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/timesheets.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Location: loc,
		PayPeriod: PayPeriodConfig{
			Anchor:     time.Date(2024, time.January, 7, 0, 0, 0, 0, loc),
			LengthDays: 14,
		},
		Provider: ProviderConfig{
			BaseURL: "https://api.wheniwork.com/2",
			Timeout: 30 * time.Second,
		},
		AutoApproval: AutoApprovalConfig{
			Enabled:       true,
			Weekday:       time.Tuesday,
			Hour:          8,
			Minute:        5,
			CheckInterval: time.Minute,
		},
		Sync: SyncConfig{
			Interval:        time.Hour,
			LookbackPeriods: 1,
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Location == nil {
		return fmt.Errorf("timezone is required")
	}
	if c.PayPeriod.LengthDays <= 0 || c.PayPeriod.LengthDays%7 != 0 {
		return fmt.Errorf("pay_period.length_days must be a positive multiple of 7")
	}
	if c.PayPeriod.Anchor.Weekday() != time.Sunday {
		return fmt.Errorf("pay_period.anchor_date must be a Sunday")
	}
	return nil
}

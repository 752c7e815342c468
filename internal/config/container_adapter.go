package config

import (
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/container"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/worker"
)

// ToContainerConfig converts the file-based Config into the container's
// parsed configuration.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	anchor, err := period.ParseDate(c.PayPeriod.AnchorDate, loc)
	if err != nil {
		return nil, fmt.Errorf("pay_period.anchor_date: %w", err)
	}
	weekday, err := worker.ParseWeekday(c.AutoApproval.Weekday)
	if err != nil {
		return nil, fmt.Errorf("auto_approval.weekday: %w", err)
	}
	hour, minute, err := worker.ParseClock(c.AutoApproval.Time)
	if err != nil {
		return nil, fmt.Errorf("auto_approval.time: %w", err)
	}

	cc := &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Location: loc,
		PayPeriod: container.PayPeriodConfig{
			Anchor:     anchor,
			LengthDays: c.PayPeriod.LengthDays,
		},
		Provider: container.ProviderConfig{
			BaseURL: c.Provider.BaseURL,
			Token:   c.Provider.APIToken,
			Timeout: c.Provider.Timeout,
		},
		AutoApproval: container.AutoApprovalConfig{
			Enabled:       c.AutoApproval.Enabled,
			Weekday:       weekday,
			Hour:          hour,
			Minute:        minute,
			CheckInterval: c.AutoApproval.CheckInterval,
		},
		Sync: container.SyncConfig{
			Enabled:         c.Sync.Enabled,
			Interval:        c.Sync.Interval,
			LocationIDs:     c.Sync.LocationIDs,
			LookbackPeriods: c.Sync.LookbackPeriods,
		},
		Report: container.ReportConfig{
			OutputDir: c.Report.OutputDir,
			S3Bucket:  c.Report.S3Bucket,
			S3Region:  c.Report.S3Region,
			S3Prefix:  c.Report.S3Prefix,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Auth: container.AuthConfig{
			JWTSecret: c.Auth.JWTSecret,
			TokenTTL:  c.Auth.TokenTTL,
		},
	}

	n := c.Notification
	if n.Email.Enabled {
		cc.Notification.Email = &container.EmailConfig{Region: n.Email.Region, From: n.Email.From, To: n.Email.To}
	}
	if n.Slack.Enabled {
		cc.Notification.Slack = &container.SlackConfig{Token: n.Slack.Token, ChannelID: n.Slack.ChannelID}
	}
	if n.Lark.Enabled {
		cc.Notification.Lark = &container.LarkConfig{AppID: n.Lark.AppID, AppSecret: n.Lark.AppSecret, ReceiveEmail: n.Lark.ReceiveEmail}
	}

	return cc, nil
}

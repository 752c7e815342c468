package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Timezone     string             `mapstructure:"timezone" validate:"required"`
	PayPeriod    PayPeriodConfig    `mapstructure:"pay_period"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	AutoApproval AutoApprovalConfig `mapstructure:"auto_approval"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Notification NotificationConfig `mapstructure:"notification"`
	Report       ReportConfig       `mapstructure:"report"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
}

// PayPeriodConfig pins the pay-period grid
type PayPeriodConfig struct {
	AnchorDate string `mapstructure:"anchor_date" validate:"required,datetime=2006-01-02"`
	LengthDays int    `mapstructure:"length_days" validate:"gt=0"`
}

// ProviderConfig holds When I Work API settings
type ProviderConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	APIToken string        `mapstructure:"api_token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AutoApprovalConfig holds the weekly auto-approval schedule
type AutoApprovalConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Weekday       string        `mapstructure:"weekday" validate:"required"`
	Time          string        `mapstructure:"time" validate:"required,datetime=15:04"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// SyncConfig holds the periodic sync settings
type SyncConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Interval        time.Duration `mapstructure:"interval"`
	LocationIDs     []int64       `mapstructure:"location_ids"`
	LookbackPeriods int           `mapstructure:"lookback_periods" validate:"gte=0"`
}

// NotificationConfig holds the report delivery channels
type NotificationConfig struct {
	Email EmailConfig `mapstructure:"email"`
	Slack SlackConfig `mapstructure:"slack"`
	Lark  LarkConfig  `mapstructure:"lark"`
}

// EmailConfig holds SES email delivery settings
type EmailConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Region  string   `mapstructure:"region" validate:"required_if=Enabled true"`
	From    string   `mapstructure:"from" validate:"required_if=Enabled true,omitempty,email"`
	To      []string `mapstructure:"to" validate:"required_if=Enabled true,dive,email"`
}

// SlackConfig holds Slack delivery settings
type SlackConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Token     string `mapstructure:"token" validate:"required_if=Enabled true"`
	ChannelID string `mapstructure:"channel_id" validate:"required_if=Enabled true"`
}

// LarkConfig holds Lark delivery settings
type LarkConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	AppID        string `mapstructure:"app_id" validate:"required_if=Enabled true"`
	AppSecret    string `mapstructure:"app_secret" validate:"required_if=Enabled true"`
	ReceiveEmail string `mapstructure:"receive_email" validate:"required_if=Enabled true,omitempty,email"`
}

// ReportConfig holds where rendered reports are kept
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Region  string `mapstructure:"s3_region"`
	S3Prefix  string `mapstructure:"s3_prefix"`
}

// AuthConfig holds API token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is read first when present.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/timesheets.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("timezone", "America/Chicago")
	v.SetDefault("pay_period.anchor_date", "2024-01-07")
	v.SetDefault("pay_period.length_days", 14)

	v.SetDefault("provider.base_url", "https://api.wheniwork.com/2")
	v.SetDefault("provider.timeout", 30*time.Second)

	v.SetDefault("auto_approval.enabled", true)
	v.SetDefault("auto_approval.weekday", "tuesday")
	v.SetDefault("auto_approval.time", "08:05")
	v.SetDefault("auto_approval.check_interval", time.Minute)

	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.interval", time.Hour)
	v.SetDefault("sync.lookback_periods", 1)

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("provider.api_token", "WIW_API_TOKEN")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("notification.slack.token", "SLACK_BOT_TOKEN")
	_ = v.BindEnv("notification.lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("notification.lark.app_secret", "LARK_APP_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.PayPeriod.LengthDays%7 != 0 {
		return fmt.Errorf("pay_period.length_days must be a multiple of 7")
	}
	return nil
}

package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/external/notify"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/external/wheniwork"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/report"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/storage"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/worker"
	"github.com/garyjia/timesheet-approval/migrations"
	"github.com/garyjia/timesheet-approval/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ReportBundle holds the report pipeline pieces.
type ReportBundle struct {
	Renderer  port.ReportRenderer
	Store     port.ReportStore
	Notifiers []port.Notifier
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(db, logger).Run(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, cfg *Config, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Timesheets: repository.NewTimesheetRepository(sqlDB, cfg.Location, logger),
		Entries:    repository.NewEntryRepository(sqlDB, cfg.Location, logger),
		Flags:      repository.NewFlagRepository(sqlDB, logger),
		EditLogs:   repository.NewEditLogRepository(sqlDB, cfg.Location, logger),
	}, nil
}

// ProvideCalendar builds the pay-period calendar.
func ProvideCalendar(cfg *Config) (*period.Calendar, error) {
	return period.NewCalendar(cfg.PayPeriod.Anchor, cfg.PayPeriod.LengthDays, cfg.Location)
}

// ProvideScheduler creates the When I Work client. Without a token the
// provider stays unset and provider-backed commands fail as upstream errors.
func ProvideScheduler(cfg *ProviderConfig, logger *zap.Logger) port.SchedulingProvider {
	if cfg.Token == "" {
		logger.Warn("When I Work token not configured, sync and reset are disabled")
		return nil
	}
	return wheniwork.NewClient(wheniwork.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
	}, logger)
}

// ProvideReporting creates the renderer, the report store and one notifier
// per enabled channel.
func ProvideReporting(ctx context.Context, cfg *Config, logger *zap.Logger) (*ReportBundle, error) {
	renderer := report.NewWorkbookRenderer(logger)
	bundle := &ReportBundle{Renderer: renderer}

	if cfg.Report.S3Bucket != "" {
		store, err := storage.NewS3ReportStore(ctx, cfg.Report.S3Region, cfg.Report.S3Bucket, cfg.Report.S3Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 report store: %w", err)
		}
		bundle.Store = store
	} else if cfg.Report.OutputDir != "" {
		bundle.Store = storage.NewLocalReportStore(cfg.Report.OutputDir, logger)
	}

	n := cfg.Notification
	if n.Email != nil {
		email, err := notify.NewSESNotifier(ctx, n.Email.Region, n.Email.From, n.Email.To, renderer, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create email notifier: %w", err)
		}
		bundle.Notifiers = append(bundle.Notifiers, email)
	}
	if n.Slack != nil {
		bundle.Notifiers = append(bundle.Notifiers, notify.NewSlackNotifier(n.Slack.Token, n.Slack.ChannelID, logger))
	}
	if n.Lark != nil {
		client := lark.NewSDKClient(lark.Config{AppID: n.Lark.AppID, AppSecret: n.Lark.AppSecret}, logger)
		bundle.Notifiers = append(bundle.Notifiers, lark.NewNotifier(client, n.Lark.ReceiveEmail, logger))
	}

	return bundle, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Provider  port.SchedulingProvider
	Calendar  *period.Calendar
	Clock     port.Clock
	Reporting *ReportBundle
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Calendar == nil || deps.Clock == nil {
		return nil, fmt.Errorf("calendar and clock are required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	d := service.Deps{
		TxManager:  deps.TxManager,
		Timesheets: deps.Repos.Timesheets,
		Entries:    deps.Repos.Entries,
		Flags:      deps.Repos.Flags,
		EditLogs:   deps.Repos.EditLogs,
		Provider:   deps.Provider,
		Calendar:   deps.Calendar,
		Clock:      deps.Clock,
		Logger:     logger,
	}

	var publisher service.ReportPublisher
	if r := deps.Reporting; r != nil {
		publisher = service.NewReportPublisher(r.Renderer, r.Store, r.Notifiers, logger)
	}

	sync := service.NewSyncService(d)
	return &ServiceBundle{
		Sync:         sync,
		Approval:     service.NewApprovalService(d, sync),
		Query:        service.NewQueryService(d),
		AutoApproval: service.NewAutoApprovalService(d, publisher),
		Publisher:    publisher,
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Config   *Config
	Services *ServiceBundle
	Calendar *period.Calendar
	Clock    port.Clock
	Logger   *zap.Logger
}

// ProvideWorkers creates the enabled background workers.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil || deps.Services == nil {
		return nil, fmt.Errorf("services are required")
	}

	manager := worker.NewWorkerManager(deps.Logger)
	cfg := deps.Config

	if cfg.AutoApproval.Enabled {
		manager.Register(worker.NewAutoApprovalWorker(worker.AutoApprovalConfig{
			Weekday:       cfg.AutoApproval.Weekday,
			Hour:          cfg.AutoApproval.Hour,
			Minute:        cfg.AutoApproval.Minute,
			CheckInterval: cfg.AutoApproval.CheckInterval,
		}, deps.Services.AutoApproval, deps.Clock, deps.Logger))
	}

	if cfg.Sync.Enabled {
		manager.Register(worker.NewSyncWorker(worker.SyncConfig{
			Interval:        cfg.Sync.Interval,
			LocationIDs:     cfg.Sync.LocationIDs,
			LookbackPeriods: cfg.Sync.LookbackPeriods,
		}, deps.Services.Sync, deps.Calendar, deps.Clock, deps.Logger))
	}

	return manager, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/timesheet-approval/internal/config"
	"github.com/garyjia/timesheet-approval/internal/container"
	"github.com/garyjia/timesheet-approval/pkg/utils"
)

// loadConfig reads the configuration and builds a CLI logger
func loadConfig(opts *options) (*config.Config, *container.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := utils.NewCLILogger(opts.verbose)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, containerCfg, logger, nil
}

// withApp starts a worker-less container around fn and closes it afterwards
func withApp(opts *options, fn func(ctx context.Context, cmd *cobra.Command, app *container.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		_, containerCfg, logger, err := loadConfig(opts)
		if err != nil {
			return err
		}
		defer logger.Sync()

		containerCfg.AutoApproval.Enabled = false
		containerCfg.Sync.Enabled = false

		app, err := container.NewContainer(containerCfg, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer app.Close()

		return fn(ctx, cmd, app, args)
	}
}

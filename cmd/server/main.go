package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/timesheet-approval/internal/config"
	"github.com/garyjia/timesheet-approval/internal/container"
	httpapi "github.com/garyjia/timesheet-approval/internal/interfaces/http"
	"github.com/garyjia/timesheet-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "timesheet-approval",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret (JWT_SECRET) is required to serve the API")
	}

	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting timesheet approval service",
		zap.String("timezone", cfg.Timezone),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer app.Close()

	services := app.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         containerCfg.Server.Host,
		Port:         containerCfg.Server.Port,
		ReadTimeout:  containerCfg.Server.ReadTimeout,
		WriteTimeout: containerCfg.Server.WriteTimeout,
	}, httpapi.Services{
		Approval:     services.Approval,
		Query:        services.Query,
		Sync:         services.Sync,
		AutoApproval: services.AutoApproval,
	}, httpapi.NewAuthenticator(containerCfg.Auth.JWTSecret, containerCfg.Auth.TokenTTL), containerCfg.Location, app.ServiceLogger())

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}

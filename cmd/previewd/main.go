package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/api"
	"github.com/MartialAndCo/berinia-bot/internal/app"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/logging"
	"github.com/MartialAndCo/berinia-bot/internal/scheduler"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

type server interface {
	Start(ctx context.Context, addr string) error
}

type cronScheduler interface {
	Start(cfg scheduler.Config) error
	Stop(ctx context.Context)
}

var (
	loadConfig         = config.Load
	newLogger          = logging.New
	buildApp           = app.Build
	dialTemporal       = client.Dial
	newWorkflowService = workflows.NewService
	newScheduler       = func(a *app.App) cronScheduler {
		return scheduler.New(a.Trigger, a.Sweep, a.Logger)
	}
	newServer = func(deps api.Deps) server {
		return api.NewServer(deps)
	}
	notifyContext = signal.NotifyContext
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	deps := api.Deps{
		Store:     application.Store,
		Generator: application.Pipeline,
		Trigger:   application.Trigger,
		Sweep:     application.Sweep,
		Runs:      application.Runs,
		Agents:    application.Agents,
		Metrics:   application.Metrics,
		Logger:    logger,
		Config:    cfg,
	}

	if cfg.TemporalEnabled {
		workflowClient, err := dialTemporal(client.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			return err
		}
		if workflowClient != nil {
			defer workflowClient.Close()
		}
		deps.Workflows = newWorkflowService(workflowClient, cfg.TemporalTaskQueue)
	}

	if cfg.SchedulerEnabled {
		sched := newScheduler(application)
		if err := sched.Start(scheduler.Config{
			MissionSchedule: cfg.MissionSchedule,
			ExpirySchedule:  cfg.ExpirySchedule,
		}); err != nil {
			return err
		}
		defer sched.Stop(context.Background())
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("preview server listening",
		zap.String("addr", addr),
		zap.Bool("temporal", cfg.TemporalEnabled),
		zap.Bool("scheduler", cfg.SchedulerEnabled))
	return newServer(deps).Start(ctx, addr)
}

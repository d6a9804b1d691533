package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/app"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/logging"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

type temporalWorker interface {
	RegisterWorkflow(w interface{})
	RegisterActivity(a interface{})
	Run(interruptCh <-chan interface{}) error
}

var (
	loadConfig   = config.Load
	newLogger    = logging.New
	buildApp     = app.Build
	dialTemporal = client.Dial
	newWorker    = func(c client.Client, taskQueue string, options worker.Options) temporalWorker {
		return worker.New(c, taskQueue, options)
	}
	workerInterrupt = worker.InterruptCh
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

	temporalClient, err := dialTemporal(client.Options{
		HostPort: cfg.TemporalAddress,
	})
	if err != nil {
		return err
	}
	if temporalClient != nil {
		defer temporalClient.Close()
	}

	application, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	taskQueue := cfg.TemporalTaskQueue
	if taskQueue == "" {
		taskQueue = workflows.DefaultTaskQueue
	}
	w := newWorker(temporalClient, taskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.GenerateWorkflow)
	w.RegisterActivity(workflows.NewGenerateActivities(application.Pipeline))

	logger.Info("generation worker started", zap.String("task_queue", taskQueue))
	return w.Run(workerInterrupt())
}

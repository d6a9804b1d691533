package main

import (
	"errors"
	"testing"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/app"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

type stubWorker struct {
	runErr     error
	workflows  []interface{}
	activities []interface{}
}

func (s *stubWorker) RegisterWorkflow(w interface{}) {
	s.workflows = append(s.workflows, w)
}

func (s *stubWorker) RegisterActivity(a interface{}) {
	s.activities = append(s.activities, a)
}

func (s *stubWorker) Run(_ <-chan interface{}) error {
	return s.runErr
}

func captureWorkerDeps() func() {
	origLoadConfig := loadConfig
	origNewLogger := newLogger
	origBuildApp := buildApp
	origDialTemporal := dialTemporal
	origNewWorker := newWorker
	origWorkerInterrupt := workerInterrupt

	return func() {
		loadConfig = origLoadConfig
		newLogger = origNewLogger
		buildApp = origBuildApp
		dialTemporal = origDialTemporal
		newWorker = origNewWorker
		workerInterrupt = origWorkerInterrupt
	}
}

func stubWorkerDeps(cfg config.Config, w *stubWorker) {
	loadConfig = func() (config.Config, error) {
		return cfg, nil
	}
	newLogger = func(string, string) (*zap.Logger, error) {
		return zap.NewNop(), nil
	}
	dialTemporal = func(_ client.Options) (client.Client, error) {
		return nil, nil
	}
	newWorker = func(_ client.Client, _ string, _ worker.Options) temporalWorker {
		return w
	}
	workerInterrupt = func() <-chan interface{} {
		return make(chan interface{})
	}
}

func TestRunSuccess(t *testing.T) {
	restore := captureWorkerDeps()
	t.Cleanup(restore)

	w := &stubWorker{}
	var queue string
	stubWorkerDeps(config.Config{TemporalAddress: "localhost:7233"}, w)
	newWorker = func(_ client.Client, taskQueue string, _ worker.Options) temporalWorker {
		queue = taskQueue
		return w
	}

	if err := run(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if queue != workflows.DefaultTaskQueue {
		t.Fatalf("task queue = %q, want %q", queue, workflows.DefaultTaskQueue)
	}
	if len(w.workflows) != 1 || len(w.activities) != 1 {
		t.Fatalf("registered %d workflows and %d activities", len(w.workflows), len(w.activities))
	}
	if _, ok := w.activities[0].(*workflows.GenerateActivities); !ok {
		t.Fatalf("unexpected activity type %T", w.activities[0])
	}
}

func TestRunConfigLoadFailure(t *testing.T) {
	restore := captureWorkerDeps()
	t.Cleanup(restore)

	loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("config load failed")
	}

	if err := run(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRunTemporalClientFailure(t *testing.T) {
	restore := captureWorkerDeps()
	t.Cleanup(restore)

	stubWorkerDeps(config.Config{TemporalAddress: "localhost:7233"}, &stubWorker{})
	dialTemporal = func(_ client.Options) (client.Client, error) {
		return nil, errors.New("temporal dial failed")
	}

	if err := run(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRunAppBuildFailure(t *testing.T) {
	restore := captureWorkerDeps()
	t.Cleanup(restore)

	stubWorkerDeps(config.Config{}, &stubWorker{})
	buildApp = func(config.Config, *zap.Logger) (*app.App, error) {
		return nil, errors.New("database required")
	}

	if err := run(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRunWorkerFailure(t *testing.T) {
	restore := captureWorkerDeps()
	t.Cleanup(restore)

	stubWorkerDeps(config.Config{}, &stubWorker{runErr: errors.New("worker stopped")})

	if err := run(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

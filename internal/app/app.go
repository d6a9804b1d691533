// Package app assembles the generation pipeline and its jobs from
// configuration. The server, the worker and the CLI share it.
package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/agentplatform"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/crawler"
	"github.com/MartialAndCo/berinia-bot/internal/fetcher"
	"github.com/MartialAndCo/berinia-bot/internal/jobs"
	"github.com/MartialAndCo/berinia-bot/internal/llm"
	"github.com/MartialAndCo/berinia-bot/internal/metrics"
	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
	"github.com/MartialAndCo/berinia-bot/internal/provisioner"
	"github.com/MartialAndCo/berinia-bot/internal/store"
	"github.com/MartialAndCo/berinia-bot/internal/store/memory"
	"github.com/MartialAndCo/berinia-bot/internal/store/postgres"
	"github.com/MartialAndCo/berinia-bot/internal/summarizer"
)

var newPostgresStore = postgres.New

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Store    store.Store
	Pipeline *pipeline.Orchestrator
	Trigger  *jobs.MissionTrigger
	Sweep    *jobs.ExpirySweep
	Runs     *jobs.RunLister
	Agents   *agentplatform.Client

	closers []func() error
}

// Build wires every component. Only an invalid configuration or a required
// database that cannot be reached fails; missing credentials surface when the
// component that needs them is used.
func Build(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	st, pg, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.Store = st

	locker, err := a.locker(pg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider:     cfg.LLMProvider,
		Model:        cfg.LLMModel,
		BaseURL:      cfg.OpenAIBaseURL,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Agents = agentplatform.New(agentplatform.Config{
		APIKey:  cfg.AgentPlatformAPIKey,
		BaseURL: cfg.AgentPlatformBaseURL,
	}, logger)
	resolver, err := provisioner.NewResolver(cfg.AgentMode, cfg.StaticAgentID,
		provisioner.New(a.Agents, cfg.AgentPlatformModel, logger))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Pipeline = pipeline.New(pipeline.Deps{
		Fetcher: fetcher.New(fetcher.Config{
			Timeout: cfg.FetchTimeout,
			Format:  cfg.FetchFormat,
		}, logger),
		Summarizer:     summarizer.New(provider, logger, a.Metrics),
		Resolver:       resolver,
		Store:          st,
		Locker:         locker,
		Logger:         logger,
		Metrics:        a.Metrics,
		DefaultBaseURL: cfg.DefaultBaseURL,
	})

	crawl := crawler.New(crawler.Config{Token: cfg.CrawlerAPIToken, BaseURL: cfg.CrawlerBaseURL}, logger)
	a.Trigger = jobs.NewMissionTrigger(st, crawl, jobs.TriggerConfig{
		ActorID:    cfg.CrawlerActorID,
		WebhookURL: cfg.IngestionWebhookURL,
		Interval:   cfg.MissionTriggerRate,
	}, logger, a.Metrics)
	a.Sweep = jobs.NewExpirySweep(st, cfg.ProjectRetention, logger, a.Metrics)
	a.Runs = jobs.NewRunLister(crawl, logger)
	return a, nil
}

func (a *App) openStore() (store.Store, *postgres.PostgresStore, error) {
	if a.Config.DatabaseURL == "" {
		if a.Config.DatabaseRequired {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		a.Logger.Warn("no database configured, using in-memory store")
		return memory.New(), nil, nil
	}
	pg, err := newPostgresStore(a.Config.DatabaseURL, a.Logger)
	if err != nil {
		if a.Config.DatabaseRequired {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		a.Logger.Warn("database unavailable, using in-memory store", zap.Error(err))
		return memory.New(), nil, nil
	}
	a.closers = append(a.closers, pg.Close)
	return pg, pg, nil
}

func (a *App) locker(pg *postgres.PostgresStore) (pipeline.Locker, error) {
	switch a.Config.LeadLocking {
	case "", config.LeadLockingNone:
		return nil, nil
	case config.LeadLockingLocal:
		return pipeline.NewLocalLocker(), nil
	case config.LeadLockingPostgres:
		if pg == nil {
			a.Logger.Warn("postgres lead locking requested without a database, using in-process locks")
			return pipeline.NewLocalLocker(), nil
		}
		return postgres.NewAdvisoryLocker(pg.DB(), a.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported lead locking %q", a.Config.LeadLocking)
	}
}

// PostgresStore returns the database store, or nil in memory mode.
func (a *App) PostgresStore() *postgres.PostgresStore {
	pg, _ := a.Store.(*postgres.PostgresStore)
	return pg
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Package pipeline turns a website URL into a deployed agent and a preview
// link: fetch, summarize, resolve the agent, persist, then link.
//
// A request carrying a lead id is idempotent: once a project linked to that
// lead has a preview link, later requests return it unchanged without
// fetching, summarizing or provisioning again.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/fetcher"
	"github.com/MartialAndCo/berinia-bot/internal/metrics"
	"github.com/MartialAndCo/berinia-bot/internal/provisioner"
	"github.com/MartialAndCo/berinia-bot/internal/store"
	"github.com/MartialAndCo/berinia-bot/internal/summarizer"
)

const (
	StageLock      = "lock"
	StageLookup    = "lookup"
	StageFetch     = "fetch"
	StageSummarize = "summarize"
	StageProvision = "provision"
	StagePersist   = "persist"
	StageLink      = "link"

	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeReused  = "reused"
	OutcomeFailed  = "failed"
)

var ErrMissingURL = errors.New("url is required")

// StageError wraps the error of the stage that aborted a generation.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

type Summarizer interface {
	Summarize(ctx context.Context, text, sourceURL string) summarizer.KnowledgeSummary
}

// Locker serializes generations for the same key. The returned func
// releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Request struct {
	URL    string
	LeadID string
	// BaseURL is the public origin preview links are built on. When empty
	// the orchestrator's default is used.
	BaseURL string
}

type Result struct {
	ProjectID   string `json:"projectId"`
	PreviewURL  string `json:"previewUrl"`
	AgentID     string `json:"agentId"`
	CompanyName string `json:"companyName"`
	Reused      bool   `json:"reused"`
}

type Deps struct {
	Fetcher        Fetcher
	Summarizer     Summarizer
	Resolver       provisioner.Resolver
	Store          store.Store
	Locker         Locker
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	DefaultBaseURL string
}

type Orchestrator struct {
	fetcher        Fetcher
	summarizer     Summarizer
	resolver       provisioner.Resolver
	store          store.Store
	locker         Locker
	logger         *zap.Logger
	metrics        *metrics.Metrics
	defaultBaseURL string
}

func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:        deps.Fetcher,
		summarizer:     deps.Summarizer,
		resolver:       deps.Resolver,
		store:          deps.Store,
		locker:         deps.Locker,
		logger:         logger.Named("pipeline"),
		metrics:        deps.Metrics,
		defaultBaseURL: deps.DefaultBaseURL,
	}
}

func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	result, outcome, err := o.generate(ctx, req)
	if err != nil {
		o.metrics.ObserveGeneration(OutcomeFailed)
		return Result{}, err
	}
	o.metrics.ObserveGeneration(outcome)
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (Result, string, error) {
	target := fetcher.NormalizeURL(req.URL)
	if target == "" {
		return Result{}, "", ErrMissingURL
	}
	leadID := strings.TrimSpace(req.LeadID)
	logger := o.logger.With(zap.String("url", target), zap.String("lead_id", leadID))

	if leadID != "" && o.locker != nil {
		unlock, err := o.locker.Lock(ctx, "lead:"+leadID)
		if err != nil {
			return Result{}, "", &StageError{Stage: StageLock, Err: err}
		}
		defer unlock()
	}

	existingID := ""
	if leadID != "" {
		existing, err := o.findExisting(ctx, leadID)
		if err != nil {
			return Result{}, "", &StageError{Stage: StageLookup, Err: err}
		}
		if existing != nil && existing.DemoURL != "" {
			logger.Info("project already generated for lead", zap.String("project_id", existing.ID))
			return Result{
				ProjectID:   existing.ID,
				PreviewURL:  existing.DemoURL,
				AgentID:     existing.AgentID,
				CompanyName: existing.CompanyName,
				Reused:      true,
			}, OutcomeReused, nil
		}
		if existing != nil {
			existingID = existing.ID
			logger.Info("resuming incomplete project for lead", zap.String("project_id", existingID))
		}
	}

	started := time.Now()
	text := o.fetcher.Fetch(ctx, target)
	o.metrics.ObserveStage(StageFetch, time.Since(started))
	if text == fetcher.Placeholder {
		o.metrics.ObserveFetchFailure()
	}

	started = time.Now()
	summary := o.summarizer.Summarize(ctx, text, target)
	o.metrics.ObserveStage(StageSummarize, time.Since(started))

	started = time.Now()
	agent, err := o.resolver.ResolveAgent(ctx, summary)
	o.metrics.ObserveStage(StageProvision, time.Since(started))
	if err != nil {
		return Result{}, "", &StageError{Stage: StageProvision, Err: err}
	}

	projectID, err := o.store.UpsertProject(ctx, store.ProjectInput{
		URL:                  target,
		CompanyName:          summary.CompanyName,
		KnowledgeBaseSummary: summary.SummaryText,
		Status:               store.StatusActive,
		AgentID:              agent.AgentID,
		AgentResourceID:      agent.ResourceID,
		LinkedLeadID:         leadID,
	}, existingID)
	if err != nil {
		return Result{}, "", &StageError{Stage: StagePersist, Err: err}
	}

	base := strings.TrimSpace(req.BaseURL)
	if base == "" {
		base = o.defaultBaseURL
	}
	previewURL := PreviewURL(base, projectID)
	if err := o.store.SetDemoURL(ctx, projectID, previewURL); err != nil {
		return Result{}, "", &StageError{Stage: StageLink, Err: err}
	}

	outcome := OutcomeCreated
	if existingID != "" {
		outcome = OutcomeUpdated
	}
	logger.Info("preview generated",
		zap.String("project_id", projectID),
		zap.String("agent_id", agent.AgentID),
		zap.String("summary_source", summary.Source),
		zap.String("outcome", outcome))

	return Result{
		ProjectID:   projectID,
		PreviewURL:  previewURL,
		AgentID:     agent.AgentID,
		CompanyName: summary.CompanyName,
	}, outcome, nil
}

func (o *Orchestrator) findExisting(ctx context.Context, leadID string) (*store.Project, error) {
	projectID, err := o.store.FindProjectByLead(ctx, leadID)
	if err != nil || projectID == "" {
		return nil, err
	}
	return o.store.GetProject(ctx, projectID)
}

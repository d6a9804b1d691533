package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/crawler"
	"github.com/MartialAndCo/berinia-bot/internal/metrics"
	"github.com/MartialAndCo/berinia-bot/internal/store"
)

const DefaultActorID = "compass~crawler-google-places"

// CrawlInput is the actor input for one mission.
type CrawlInput struct {
	SearchStringsArray        []string `json:"searchStringsArray"`
	MaxCrawledPlacesPerSearch int      `json:"maxCrawledPlacesPerSearch"`
	Language                  string   `json:"language"`
}

type TriggerResult struct {
	MissionID string `json:"missionId"`
	Success   bool   `json:"success"`
	RunID     string `json:"runId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type TriggerReport struct {
	Count   int             `json:"count"`
	Results []TriggerResult `json:"results"`
}

type TriggerConfig struct {
	ActorID    string
	WebhookURL string
	// Interval between two job starts. Zero disables pacing.
	Interval time.Duration
}

type MissionTrigger struct {
	store   store.Store
	crawler Crawler
	cfg     TriggerConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewMissionTrigger(st store.Store, c Crawler, cfg TriggerConfig, logger *zap.Logger, m *metrics.Metrics) *MissionTrigger {
	if cfg.ActorID == "" {
		cfg.ActorID = DefaultActorID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}
	return &MissionTrigger{
		store:   st,
		crawler: c,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.Named("mission_trigger"),
		metrics: m,
		now:     time.Now,
	}
}

// SearchQuery is the crawl query string for a mission.
func SearchQuery(keyword, location string) string {
	return keyword + " in " + location
}

// WebhookURL appends the query and bound to the ingestion URL. An
// unparsable URL is returned unchanged.
func WebhookURL(base, query string, maxLeads int) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	values := u.Query()
	values.Add("query", query)
	values.Add("max", strconv.Itoa(maxLeads))
	u.RawQuery = values.Encode()
	return u.String()
}

// TriggerAll starts one crawl job per active mission. A failing mission is
// recorded in the report and does not stop the others.
func (t *MissionTrigger) TriggerAll(ctx context.Context) (TriggerReport, error) {
	missions, err := t.store.ListActiveMissions(ctx)
	if err != nil {
		return TriggerReport{}, fmt.Errorf("list active missions: %w", err)
	}
	report := TriggerReport{Count: len(missions), Results: make([]TriggerResult, 0, len(missions))}
	for _, mission := range missions {
		if err := t.limiter.Wait(ctx); err != nil {
			return report, err
		}
		result := t.Trigger(ctx, mission)
		report.Results = append(report.Results, result)
	}
	t.logger.Info("missions triggered", zap.Int("count", report.Count))
	return report, nil
}

// Trigger starts the crawl job for one mission.
func (t *MissionTrigger) Trigger(ctx context.Context, mission store.Mission) TriggerResult {
	result := TriggerResult{MissionID: mission.ID}
	runID, err := t.start(ctx, mission)
	t.metrics.ObserveMissionTrigger(err == nil)
	if err != nil {
		t.logger.Warn("mission trigger failed", zap.String("mission_id", mission.ID), zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.RunID = runID
	if err := t.store.MarkMissionRun(ctx, mission.ID, t.now().UTC()); err != nil {
		t.logger.Warn("mark mission run failed", zap.String("mission_id", mission.ID), zap.Error(err))
	}
	return result
}

func (t *MissionTrigger) start(ctx context.Context, mission store.Mission) (string, error) {
	if t.cfg.WebhookURL == "" {
		return "", config.MissingCredentialError{Name: "INGESTION_WEBHOOK_URL"}
	}
	query := SearchQuery(mission.Keyword, mission.Location)
	input := CrawlInput{
		SearchStringsArray:        []string{query},
		MaxCrawledPlacesPerSearch: mission.MaxLeads,
		Language:                  "en",
	}
	webhooks := []crawler.Webhook{{
		EventTypes: []string{crawler.EventRunSucceeded},
		RequestURL: WebhookURL(t.cfg.WebhookURL, query, mission.MaxLeads),
	}}
	run, err := t.crawler.StartJob(ctx, t.cfg.ActorID, input, webhooks)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

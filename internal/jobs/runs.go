package jobs

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRunLimit = 10
	defaultMaxLeads = 20
)

// RunSummary is a crawl run enriched with the mission parameters it was
// started with.
type RunSummary struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	StartedAt        *time.Time `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt"`
	Duration         int64      `json:"duration"`
	DefaultDatasetID string     `json:"defaultDatasetId"`
	Keyword          string     `json:"keyword"`
	Location         string     `json:"location"`
	ItemCount        int        `json:"itemCount"`
	MaxLeads         int        `json:"maxLeads"`
}

// runInput is the stored actor input. Queries is used by scrapers that do
// not take searchStringsArray.
type runInput struct {
	SearchStringsArray        []string `json:"searchStringsArray"`
	Queries                   string   `json:"queries"`
	MaxCrawledPlacesPerSearch int      `json:"maxCrawledPlacesPerSearch"`
}

type RunLister struct {
	crawler Crawler
	logger  *zap.Logger
}

func NewRunLister(c Crawler, logger *zap.Logger) *RunLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunLister{crawler: c, logger: logger.Named("runs")}
}

// RecentRuns lists the latest crawl runs, newest first. Listing errors are
// logged and yield an empty slice.
func (l *RunLister) RecentRuns(ctx context.Context, limit int) []RunSummary {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	runs, err := l.crawler.ListRuns(ctx, limit)
	if err != nil {
		l.logger.Warn("list crawl runs failed", zap.Error(err))
		return []RunSummary{}
	}

	out := make([]RunSummary, len(runs))
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run := runs[i]
			summary := RunSummary{
				ID:               run.ID,
				Status:           run.Status,
				StartedAt:        run.StartedAt,
				FinishedAt:       run.FinishedAt,
				DefaultDatasetID: run.DefaultDatasetID,
				Keyword:          "Unknown",
				Location:         "-",
				MaxLeads:         defaultMaxLeads,
			}
			if run.StartedAt != nil && run.FinishedAt != nil {
				summary.Duration = int64(math.Round(run.FinishedAt.Sub(*run.StartedAt).Seconds()))
			}
			l.enrich(ctx, run.DefaultKeyValueStoreID, run.DefaultDatasetID, &summary)
			out[i] = summary
		}(i)
	}
	wg.Wait()
	return out
}

func (l *RunLister) enrich(ctx context.Context, storeID, datasetID string, summary *RunSummary) {
	if storeID != "" {
		var input runInput
		found, err := l.crawler.GetRecord(ctx, storeID, "INPUT", &input)
		if err != nil {
			l.logger.Debug("read run input failed", zap.String("run_id", summary.ID), zap.Error(err))
			return
		}
		if found {
			summary.Keyword, summary.Location = parseQuery(input, summary.Keyword, summary.Location)
			if input.MaxCrawledPlacesPerSearch > 0 {
				summary.MaxLeads = input.MaxCrawledPlacesPerSearch
			}
		}
	}
	if datasetID != "" {
		dataset, err := l.crawler.GetDataset(ctx, datasetID)
		if err != nil {
			l.logger.Debug("read run dataset failed", zap.String("run_id", summary.ID), zap.Error(err))
			return
		}
		summary.ItemCount = dataset.ItemCount
	}
}

// parseQuery splits "<keyword> in <location>" on the first " in ".
func parseQuery(input runInput, keyword, location string) (string, string) {
	if len(input.SearchStringsArray) > 0 {
		query := input.SearchStringsArray[0]
		if k, loc, ok := strings.Cut(query, " in "); ok {
			return strings.TrimSpace(k), strings.TrimSpace(loc)
		}
		return strings.TrimSpace(query), location
	}
	if input.Queries != "" {
		return input.Queries, location
	}
	return keyword, location
}

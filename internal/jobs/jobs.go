// Package jobs holds the scheduled operations: starting crawl jobs for active
// missions, deactivating expired projects and reporting recent crawl runs.
package jobs

import (
	"context"

	"github.com/MartialAndCo/berinia-bot/internal/crawler"
)

// Crawler is the part of the crawling service client the jobs use.
type Crawler interface {
	StartJob(ctx context.Context, actorID string, input any, webhooks []crawler.Webhook) (crawler.Run, error)
	ListRuns(ctx context.Context, limit int) ([]crawler.Run, error)
	GetRecord(ctx context.Context, storeID, key string, out any) (bool, error)
	GetDataset(ctx context.Context, datasetID string) (crawler.Dataset, error)
}

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/metrics"
	"github.com/MartialAndCo/berinia-bot/internal/store"
)

const DefaultRetention = 30 * 24 * time.Hour

type SweepReport struct {
	TotalChecked int      `json:"totalChecked"`
	ExpiredFound int      `json:"expiredFound"`
	Deactivated  int      `json:"deactivated"`
	Failed       int      `json:"failed"`
	ExpiredIDs   []string `json:"expiredIds"`
}

type ExpirySweep struct {
	store     store.Store
	retention time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewExpirySweep(st store.Store, retention time.Duration, logger *zap.Logger, m *metrics.Metrics) *ExpirySweep {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweep{store: st, retention: retention, logger: logger.Named("expiry"), metrics: m}
}

// Expired reports whether an Active project is older than retention at now. Projects without a creation time never expire.
func Expired(project store.Project, now time.Time, retention time.Duration) bool {
	if project.Status != store.StatusActive || project.CreatedTime.IsZero() {
		return false
	}
	return now.Sub(project.CreatedTime) > retention
}

// Run deactivates every expired project. Individual failures are counted.
func (s *ExpirySweep) Run(ctx context.Context, now time.Time) (SweepReport, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list projects: %w", err)
	}

	report := SweepReport{TotalChecked: len(projects), ExpiredIDs: []string{}}
	for _, project := range projects {
		if Expired(project, now, s.retention) {
			report.ExpiredIDs = append(report.ExpiredIDs, project.ID)
		}
	}
	report.ExpiredFound = len(report.ExpiredIDs)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, id := range report.ExpiredIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := s.store.SetStatus(ctx, id, store.StatusInactive)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				s.logger.Warn("deactivate project failed", zap.String("project_id", id), zap.Error(err))
				return
			}
			report.Deactivated++
		}(id)
	}
	wg.Wait()

	s.metrics.ObserveExpiry(report.ExpiredFound, report.Deactivated, report.Failed)
	s.logger.Info("expiration sweep finished",
		zap.Int("checked", report.TotalChecked),
		zap.Int("expired", report.ExpiredFound),
		zap.Int("deactivated", report.Deactivated),
		zap.Int("failed", report.Failed))
	return report, nil
}

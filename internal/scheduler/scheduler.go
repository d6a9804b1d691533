// Package scheduler runs the mission trigger and the expiration sweep on
// cron schedules inside the server process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/jobs"
)

const jobTimeout = 30 * time.Minute

type MissionTrigger interface {
	TriggerAll(ctx context.Context) (jobs.TriggerReport, error)
}

type ExpirySweep interface {
	Run(ctx context.Context, now time.Time) (jobs.SweepReport, error)
}

type Config struct {
	MissionSchedule string
	ExpirySchedule  string
}

type Scheduler struct {
	cron    *cron.Cron
	trigger MissionTrigger
	sweep   ExpirySweep
	logger  *zap.Logger
	now     func() time.Time
}

func New(trigger MissionTrigger, sweep ExpirySweep, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		trigger: trigger,
		sweep:   sweep,
		logger:  logger.Named("scheduler"),
		now:     time.Now,
	}
}

// Start registers both jobs and starts the cron loop. An empty schedule
// leaves that job unscheduled.
func (s *Scheduler) Start(cfg Config) error {
	if cfg.MissionSchedule != "" && s.trigger != nil {
		if _, err := s.cron.AddFunc(cfg.MissionSchedule, s.RunMissions); err != nil {
			return fmt.Errorf("mission schedule %q: %w", cfg.MissionSchedule, err)
		}
	}
	if cfg.ExpirySchedule != "" && s.sweep != nil {
		if _, err := s.cron.AddFunc(cfg.ExpirySchedule, s.RunExpiry); err != nil {
			return fmt.Errorf("expiry schedule %q: %w", cfg.ExpirySchedule, err)
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("mission_schedule", cfg.MissionSchedule),
		zap.String("expiry_schedule", cfg.ExpirySchedule),
		zap.Int("entries", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) RunMissions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.trigger.TriggerAll(ctx)
	if err != nil {
		s.logger.Error("scheduled mission trigger failed", zap.Error(err))
		return
	}
	succeeded := 0
	for _, r := range report.Results {
		if r.Success {
			succeeded++
		}
	}
	s.logger.Info("scheduled mission trigger completed",
		zap.Int("count", report.Count),
		zap.Int("succeeded", succeeded))
}

func (s *Scheduler) RunExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.sweep.Run(ctx, s.now())
	if err != nil {
		s.logger.Error("scheduled expiration sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled expiration sweep completed",
		zap.Int("expired", report.ExpiredFound),
		zap.Int("deactivated", report.Deactivated))
}

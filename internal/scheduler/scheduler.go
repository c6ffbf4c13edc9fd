package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agriland/internal/config"
	"agriland/internal/model"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 5 * time.Minute

// LandReindexer rebuilds the land search index from the database
type LandReindexer interface {
	ReindexAll(ctx context.Context) (int, error)
}

// MissionReporter lists missions that need an operator's attention
type MissionReporter interface {
	Orphaned(ctx context.Context) ([]model.Mission, error)
	Overdue(ctx context.Context) ([]model.Mission, error)
}

// Sweeper drops expired rate limit state
type Sweeper interface {
	Sweep()
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) error
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	lands     LandReindexer
	missions  MissionReporter
	limiter   Sweeper
	logger    *slog.Logger
	isRunning bool
}

// NewScheduler creates a new scheduler. limiter may be nil when the
// rate limiter keeps no local state.
func NewScheduler(cfg config.SchedulerConfig, lands LandReindexer, missions MissionReporter, limiter Sweeper, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		cfg:      cfg,
		lands:    lands,
		missions: missions,
		limiter:  limiter,
		logger:   logger,
	}
}

// Start registers the configured jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled in configuration")
		return nil
	}

	jobs := []job{
		{"reindex_lands", s.cfg.ReindexSpec, s.reindexLands},
		{"orphaned_missions", s.cfg.OrphanSweepSpec, s.reportOrphaned},
		{"overdue_missions", s.cfg.OverdueSpec, s.reportOverdue},
	}
	if s.limiter != nil {
		jobs = append(jobs, job{"sweep_rate_limits", s.cfg.LimiterSweepSpec, s.sweepLimiter})
	}

	registered := 0
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.run)); err != nil {
			return fmt.Errorf("invalid cron spec %q for job %s: %w", j.spec, j.name, err)
		}
		s.logger.Info("scheduled job registered", "job", j.name, "spec", j.spec)
		registered++
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("scheduler started", "jobs", registered)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("scheduler stopped")
	}
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// wrap turns a job into a cron func with a timeout and run logging
func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		startTime := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				"job", name,
				"error", err.Error(),
				"latency_ms", time.Since(startTime).Milliseconds(),
			)
			return
		}
		s.logger.Debug("scheduled job completed",
			"job", name,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
	}
}

func (s *Scheduler) reindexLands(ctx context.Context) error {
	n, err := s.lands.ReindexAll(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("land search index rebuilt", "lands", n)
	return nil
}

func (s *Scheduler) reportOrphaned(ctx context.Context) error {
	missions, err := s.missions.Orphaned(ctx)
	if err != nil {
		return err
	}
	for _, m := range missions {
		s.logger.Warn("orphaned mission",
			"mission_id", m.ID,
			"request_id", m.RequestID,
			"status", m.Status,
		)
	}
	if len(missions) > 0 {
		s.logger.Warn("orphaned missions found", "count", len(missions))
	}
	return nil
}

func (s *Scheduler) reportOverdue(ctx context.Context) error {
	missions, err := s.missions.Overdue(ctx)
	if err != nil {
		return err
	}
	for _, m := range missions {
		s.logger.Warn("overdue mission",
			"mission_id", m.ID,
			"technician_id", m.TechnicianID,
			"scheduled_date", m.ScheduledDate.Format("2006-01-02"),
			"status", m.Status,
		)
	}
	return nil
}

func (s *Scheduler) sweepLimiter(ctx context.Context) error {
	s.limiter.Sweep()
	return nil
}

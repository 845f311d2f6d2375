package usecase

import (
	"context"
	"log/slog"
	"time"

	"LawsuitMonitor/internal/ports"
)

// Scheduler wires the ticker driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. Each run gets
// its own context bounded by timeout (0 disables the bound).
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		driver:   driver,
		pipeline: pipeline,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		runCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		report, err := s.pipeline.Run(runCtx, trigger)
		if err != nil {
			s.logger.Error("scheduled run failed", "run_id", report.RunID, "error", err)
			return
		}
		s.logger.Debug("scheduled run finished", "run_id", report.RunID, "new", len(report.New))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

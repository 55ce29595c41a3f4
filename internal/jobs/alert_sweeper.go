// Package jobs runs the engine's scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/robfig/cron/v3"
)

// AlertSweeper runs the threshold sweep and the underutilization check on a
// cron schedule. Overlapping runs are skipped.
type AlertSweeper struct {
	cronScheduler *cron.Cron
	alerts        portssvc.AlertEvaluatorSvc
	logger        *slog.Logger
	runTimeout    time.Duration
	jobID         cron.EntryID
}

// NewAlertSweeper creates a sweeper. runTimeout bounds a single run; zero means no bound.
func NewAlertSweeper(alerts portssvc.AlertEvaluatorSvc, logger *slog.Logger, runTimeout time.Duration) *AlertSweeper {
	return &AlertSweeper{
		cronScheduler: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		alerts:        alerts,
		logger:        logger,
		runTimeout:    runTimeout,
	}
}

// Start schedules the sweep. Schedules use the standard five field syntax or
// descriptors such as "@hourly".
func (s *AlertSweeper) Start(schedule string) error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("error scheduling alert sweep: %w", err)
	}

	s.cronScheduler.Start()
	s.logger.Info("Alert sweep scheduler started", slog.String("schedule", schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish or ctx to expire.
func (s *AlertSweeper) Stop(ctx context.Context) {
	done := s.cronScheduler.Stop().Done()
	select {
	case <-done:
		s.logger.Info("Alert sweep scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Alert sweep still running at shutdown")
	}
}

// RunOnce performs one sweep followed by one underutilization check. A failed
// sweep does not prevent the check.
func (s *AlertSweeper) RunOnce(ctx context.Context) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.alerts.ProcessAllBudgets(ctx)
	if err != nil {
		s.logger.Error("Scheduled alert sweep failed", slog.String("error", err.Error()))
	} else {
		s.logger.Info("Scheduled alert sweep finished",
			slog.Int("budgets", result.BudgetsProcessed),
			slog.Int("lines", result.LinesProcessed),
			slog.Int("alerts_created", result.AlertsCreated),
			slog.Int("failures", len(result.Failures)),
			slog.Duration("took", time.Since(start)))
	}

	created, err := s.alerts.CheckUnderutilization(ctx, nil)
	if err != nil {
		s.logger.Error("Scheduled underutilization check failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Scheduled underutilization check finished", slog.Int("alerts_created", len(created)))
}

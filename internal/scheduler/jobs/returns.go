package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// Recomputer is the log return engine as seen by the scheduler
type Recomputer interface {
	Recompute(ctx context.Context, mode contracts.RecomputeMode) (*contracts.RecomputeReport, error)
}

// ReturnsJob keeps stored log returns current.
// A run with failed tickers is reported as an error so the scheduler retries it;
// recompute is idempotent.
type ReturnsJob struct {
	name     string
	schedule string
	mode     contracts.RecomputeMode
	engine   Recomputer
	logger   *logger.Logger
}

// NewReturnsIncrementalJob recomputes the trailing window after each trading day
func NewReturnsIncrementalJob(engine Recomputer, windowDays int, schedule string, log *logger.Logger) *ReturnsJob {
	return &ReturnsJob{
		name:     "returns_incremental",
		schedule: schedule,
		mode:     contracts.Incremental(windowDays),
		engine:   engine,
		logger:   log,
	}
}

// NewReturnsFullRebuildJob recomputes every ticker's history (split/dividend corrections)
func NewReturnsFullRebuildJob(engine Recomputer, schedule string, log *logger.Logger) *ReturnsJob {
	return &ReturnsJob{
		name:     "returns_full_rebuild",
		schedule: schedule,
		mode:     contracts.FullRebuild(),
		engine:   engine,
		logger:   log,
	}
}

// Name returns the job name
func (j *ReturnsJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule
func (j *ReturnsJob) Schedule() string {
	return j.schedule
}

// Run executes the recompute
func (j *ReturnsJob) Run(ctx context.Context) error {
	j.logger.WithField("mode", j.mode.Kind).Info("Starting scheduled log return recompute")

	report, err := j.engine.Recompute(ctx, j.mode)
	if err != nil {
		return fmt.Errorf("recompute %s: %w", j.mode.Kind, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers":  report.Tickers,
		"rows":     report.RowsUpserted,
		"failed":   len(report.Failed),
		"duration": report.Duration,
	}).Info("Scheduled log return recompute completed")

	if len(report.Failed) > 0 {
		return fmt.Errorf("recompute %s: %d tickers failed", j.mode.Kind, len(report.Failed))
	}
	return nil
}

package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/winners/internal/s0_data/quality"
	"github.com/wonny/winners/pkg/logger"
)

// CoverageChecker is the data coverage gate as seen by the scheduler
type CoverageChecker interface {
	Check(ctx context.Context) (*quality.Snapshot, error)
}

// DataCoverageJob logs a coverage snapshot after the daily recompute.
// A failing gate is a warning, not a job failure.
type DataCoverageJob struct {
	gate     CoverageChecker
	schedule string
	logger   *logger.Logger
}

// NewDataCoverageJob creates a new coverage job
func NewDataCoverageJob(gate CoverageChecker, schedule string, log *logger.Logger) *DataCoverageJob {
	return &DataCoverageJob{
		gate:     gate,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DataCoverageJob) Name() string {
	return "data_coverage"
}

// Schedule returns the cron schedule
func (j *DataCoverageJob) Schedule() string {
	return j.schedule
}

// Run executes the coverage check
func (j *DataCoverageJob) Run(ctx context.Context) error {
	snapshot, err := j.gate.Check(ctx)
	if err != nil {
		return fmt.Errorf("coverage check: %w", err)
	}

	if !snapshot.Passed {
		j.logger.WithFields(map[string]interface{}{
			"score":    snapshot.QualityScore,
			"failures": snapshot.Failures,
		}).Warn("Data coverage below thresholds")
	}
	return nil
}

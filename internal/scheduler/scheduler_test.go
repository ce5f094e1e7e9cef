package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/winners/pkg/logger"
)

// fakeJob fails its first failures runs
type fakeJob struct {
	name     string
	schedule string
	failures int32
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	if n := j.calls.Add(1); n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(logger.NewNop(), WithRetry(retries, 0))
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 18 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "30 18 * * *"}), "spec without seconds field")
	require.NoError(t, s.AddJob(&fakeJob{name: "c", schedule: "@weekly"}))

	assert.Equal(t, []string{"a", "c"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"c"}, s.GetAllJobs())
}

func TestScheduler_RunNowRetries(t *testing.T) {
	tests := []struct {
		name        string
		retries     int
		failures    int32
		wantSuccess bool
		wantCalls   int32
	}{
		{"first try", 3, 0, true, 1},
		{"succeeds on retry", 3, 2, true, 3},
		{"exhausts retries", 2, 5, false, 3},
		{"no retries", 0, 1, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(tt.retries)
			job := &fakeJob{name: "job", schedule: "@daily", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunNow(context.Background(), "job")
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantCalls, job.calls.Load())
			assert.Equal(t, int(tt.wantCalls), result.Attempts)
			if !tt.wantSuccess {
				assert.Equal(t, "transient", result.Error)
			}
		})
	}
}

func TestScheduler_RunNowCanceled(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(3, time.Hour))
	job := &fakeJob{name: "job", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunNow(ctx, "job")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), job.calls.Load())
	assert.Equal(t, context.Canceled.Error(), result.Error)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler(0)
	_, err := s.RunNow(context.Background(), "missing")
	assert.Error(t, err)
	assert.Error(t, s.RunJob("missing"))
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestScheduler_Stats(t *testing.T) {
	s := newTestScheduler(0)
	job := &fakeJob{name: "job", schedule: "@daily", failures: 1}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunNow(context.Background(), "job") // fails
	_, _ = s.RunNow(context.Background(), "job") // succeeds

	s.Start()
	defer s.Stop()

	stats := s.GetJobStats()["job"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/scheduler"
	"github.com/wonny/winners/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `로그 수익률 유지 작업을 스케줄합니다. 일정은 스크린 프로파일의 schedule 섹션.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run returns_incremental`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- returns_incremental: 평일 장 마감 후 (최근 N일 재계산)
- returns_full_rebuild: 매주 (전체 재계산, 수정주가 반영)
- data_coverage: 평일 (커버리지 점검)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Winners Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunNow(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-22s %s\n", jobName, stats[jobName].Schedule)
	}
}

// initScheduler wires the pipeline and registers every job with a non-empty schedule
func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	schedule := a.profile.Schedule
	log := a.log.WithField("module", "jobs")

	var toAdd []scheduler.Job
	if schedule.Incremental != "" {
		toAdd = append(toAdd, jobs.NewReturnsIncrementalJob(a.engine, a.cfg.Engine.ReturnsWindowDays, schedule.Incremental, log))
	}
	if schedule.FullRebuild != "" {
		toAdd = append(toAdd, jobs.NewReturnsFullRebuildJob(a.engine, schedule.FullRebuild, log))
	}
	if schedule.DataCoverage != "" {
		toAdd = append(toAdd, jobs.NewDataCoverageJob(a.gate, schedule.DataCoverage, log))
	}

	for _, job := range toAdd {
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, fmt.Errorf("add job: %w", err)
		}
	}

	return a, sched, nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/contracts"
)

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "수익률 → 랭킹 → 스크리닝 일괄 실행",
	Long: `로그 수익률 재계산이 전 종목 완료된 뒤에만 RS 랭킹과 스크리닝을 실행합니다.

Stages:
  1. returns   - full rebuild (--incremental 시 최근 N일)
  2. rank      - RS 백분위 (재계산 완료 후)
  3. screen    - 조건 필터 + 요약

Example:
  go run ./cmd/quant pipeline
  go run ./cmd/quant pipeline --incremental --csv winners.csv`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

var (
	pipelineIncremental bool
	pipelineWindow      int
)

func init() {
	rootCmd.AddCommand(pipelineCmd)

	addCriteriaFlags(pipelineCmd)
	pipelineCmd.Flags().BoolVar(&pipelineIncremental, "incremental", false, "recompute only the trailing window")
	pipelineCmd.Flags().IntVar(&pipelineWindow, "window", 0, "incremental window in calendar days (default: RETURNS_WINDOW_DAYS)")
	pipelineCmd.Flags().StringVar(&screenCSV, "csv", "", "write results to a CSV file")
	pipelineCmd.Flags().BoolVar(&screenJSON, "json", false, "print the screen as JSON")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// 조건 검증은 재계산 전에
	criteria, err := criteriaFromFlags(cmd, a.profile.Screen)
	if err != nil {
		return err
	}

	// 1. Log returns
	mode := contracts.FullRebuild()
	if pipelineIncremental {
		window := pipelineWindow
		if window == 0 {
			window = a.cfg.Engine.ReturnsWindowDays
		}
		mode = contracts.Incremental(window)
	}

	PrintHeader(fmt.Sprintf("[1/3] Log returns (%s)", mode.Kind))
	report, err := a.engine.Recompute(ctx, mode)
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}
	printRecomputeReport(report)

	// 2. Ranking - Recompute 가 모든 종목 완료 후 반환 (barrier)
	PrintHeader(fmt.Sprintf("[2/3] Relative strength (%d days)", criteria.LookbackDays))
	rankings, err := a.ranker.RankUniverse(ctx, criteria.LookbackDays)
	if err != nil {
		return fmt.Errorf("rank universe: %w", err)
	}
	printRankings(rankings, 10)

	// 3. Screen
	screen, err := a.screener.Screen(ctx, criteria)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := outputScreen(screen); err != nil {
		return err
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Pipeline completed in %s", time.Since(start).Round(time.Millisecond)))
	if len(report.Failed) > 0 {
		PrintWarning(fmt.Sprintf("%d tickers failed during recompute; their rankings use stale returns", len(report.Failed)))
	}
	return nil
}

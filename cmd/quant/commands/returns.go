package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/contracts"
)

// returnsCmd represents the returns command group
var returnsCmd = &cobra.Command{
	Use:   "returns",
	Short: "로그 수익률 재계산",
	Long: `일봉 종가로 일간 로그 수익률 ln(P_t / P_t-1)을 계산해 저장합니다.

Subcommands:
  rebuild      - 전 종목 전체 이력 재계산 (멱등)
  incremental  - 최신 거래일 기준 최근 N일만 재계산

Example:
  go run ./cmd/quant returns rebuild
  go run ./cmd/quant returns incremental --window 10`,
}

var (
	returnsRebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "전체 재계산",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd.Context(), contracts.FullRebuild())
		},
	}

	returnsIncrementalCmd = &cobra.Command{
		Use:   "incremental",
		Short: "최근 N일 재계산",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd.Context(), contracts.Incremental(returnsWindow))
		},
	}

	returnsWindow int
)

func init() {
	rootCmd.AddCommand(returnsCmd)
	returnsCmd.AddCommand(returnsRebuildCmd)
	returnsCmd.AddCommand(returnsIncrementalCmd)

	returnsIncrementalCmd.Flags().IntVar(&returnsWindow, "window", 0, "calendar days before the latest trade date (default: RETURNS_WINDOW_DAYS)")
}

func runRecompute(ctx context.Context, mode contracts.RecomputeMode) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if mode.Kind == contracts.RecomputeIncremental && mode.WindowDays == 0 {
		mode.WindowDays = a.cfg.Engine.ReturnsWindowDays
	}

	PrintHeader(fmt.Sprintf("Log Return Recompute (%s)", mode.Kind))

	report, err := a.engine.Recompute(ctx, mode)
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	printRecomputeReport(report)
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d tickers failed", len(report.Failed))
	}

	PrintSuccess("Log returns up to date")
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/s0_data/quality"
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "데이터 커버리지 확인",
	Long: `최신 거래일 기준으로 파이프라인 각 단계가 볼 수 있는 종목 비율을 확인합니다.

확인 항목:
- price          최신 거래일 종가 보유
- returns        lookback 커버리지 충족 (RS 랭킹 대상)
- fundamentals   재무제표 보유
- annual_history 3년 CAGR 계산 가능한 연간 보고서 4건 이상

Example:
  go run ./cmd/quant data-check
  go run ./cmd/quant data-check --strict`,
	Args: cobra.NoArgs,
	RunE: runDataCheck,
}

var dataCheckStrict bool

func init() {
	rootCmd.AddCommand(dataCheckCmd)

	dataCheckCmd.Flags().BoolVar(&dataCheckStrict, "strict", false, "exit non-zero when a threshold is not met")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.gate.Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("coverage check: %w", err)
	}

	PrintHeader(fmt.Sprintf("Data Coverage (%s)", contracts.FormatDate(snapshot.Date)))
	PrintKeyValue("Active stocks", fmt.Sprintf("%d", snapshot.TotalStocks), 16)
	PrintSeparator()

	for _, key := range []string{
		quality.CoveragePrice,
		quality.CoverageReturns,
		quality.CoverageFundamentals,
		quality.CoverageHistory,
	} {
		PrintKeyValue(key, formatPercent(snapshot.Coverage[key]), 16)
	}

	PrintSeparator()
	PrintKeyValue("Quality score", formatPercent(snapshot.QualityScore), 16)

	if snapshot.Passed {
		PrintSuccess("All coverage thresholds met")
		return nil
	}

	PrintWarning("Coverage below thresholds")
	PrintList(snapshot.Failures)
	if dataCheckStrict {
		return fmt.Errorf("data coverage check failed")
	}
	return nil
}

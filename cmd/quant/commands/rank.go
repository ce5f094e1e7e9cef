package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "상대강도(RS) 랭킹",
	Long: `최근 lookback 거래일 로그 수익률 합으로 전 종목을 백분위(0~100) 랭킹합니다.
커버리지(기본 80%) 미달 종목은 제외됩니다.

Example:
  go run ./cmd/quant rank
  go run ./cmd/quant rank --lookback-days 126 --top 50`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

var (
	rankLookback int
	rankTop      int
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntVar(&rankLookback, "lookback-days", 0, "trading days (default: profile lookback)")
	rankCmd.Flags().IntVar(&rankTop, "top", 30, "rows to print (0 = all)")
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lookback := rankLookback
	if lookback == 0 {
		lookback = a.profile.Screen.LookbackDays
	}

	rankings, err := a.ranker.RankUniverse(cmd.Context(), lookback)
	if err != nil {
		return fmt.Errorf("rank universe: %w", err)
	}

	PrintHeader(fmt.Sprintf("Relative Strength (%d days, %d ranked)", lookback, len(rankings)))
	printRankings(rankings, rankTop)
	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Winners - 상대강도 + 펀더멘털 스크리너",
	Long: `Winners Unified CLI

일봉 가격으로 로그 수익률을 유지하고, 상대강도(RS) 백분위와
재무 비율/매출 CAGR을 결합해 종목을 스크리닝합니다.

Pipeline:
  prices → log returns → RS ranking → fundamentals → screen

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant returns rebuild
  go run ./cmd/quant screen --min-rs-percentile 90
  go run ./cmd/quant pipeline --csv winners.csv
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "screen profile YAML (default: SCREEN_PROFILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

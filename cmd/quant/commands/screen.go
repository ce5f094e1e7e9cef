package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/selection"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Winners 스크리닝",
	Long: `가격, 시가총액, RS 백분위, EBIT, 3년 매출 CAGR 조건을 모두 만족하는 종목을
RS 백분위 내림차순으로 출력합니다. 생략한 조건은 프로파일 값을 사용합니다.

Example:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --min-rs-percentile 90 --lookback-months 6
  go run ./cmd/quant screen --csv winners.csv`,
	Args: cobra.NoArgs,
	RunE: runScreen,
}

var (
	screenCSV  string
	screenJSON bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	addCriteriaFlags(screenCmd)
	screenCmd.Flags().StringVar(&screenCSV, "csv", "", "write results to a CSV file")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print the report as JSON")
}

// addCriteriaFlags registers one string flag per screen parameter.
// Values are parsed as decimals by selection.ParseCriteria.
func addCriteriaFlags(cmd *cobra.Command) {
	flags := []struct {
		param string
		usage string
	}{
		{selection.ParamMinPrice, "minimum latest close"},
		{selection.ParamMinMarketCap, "minimum market cap"},
		{selection.ParamLookbackDays, "RS lookback in trading days"},
		{selection.ParamLookbackMonths, "RS lookback in months (x21 trading days)"},
		{selection.ParamMinEBIT, "minimum EBIT of the latest quarter"},
		{selection.ParamMinRevenueCAGR, "minimum 3Y revenue CAGR (0.10 = 10%)"},
		{selection.ParamMinRSPercentile, "minimum RS percentile (0-100)"},
	}
	for _, f := range flags {
		cmd.Flags().String(flagName(f.param), "", f.usage)
	}
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

// criteriaFromFlags overlays changed flags on the profile criteria
func criteriaFromFlags(cmd *cobra.Command, defaults contracts.ScreenCriteria) (contracts.ScreenCriteria, error) {
	return selection.ParseCriteria(func(param string) string {
		f := cmd.Flags().Lookup(flagName(param))
		if f == nil || !f.Changed {
			return ""
		}
		return f.Value.String()
	}, defaults)
}

func runScreen(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	criteria, err := criteriaFromFlags(cmd, a.profile.Screen)
	if err != nil {
		return err
	}

	report, err := a.screener.Screen(cmd.Context(), criteria)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	return outputScreen(report)
}

func outputScreen(report *contracts.ScreenReport) error {
	if screenJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		PrintHeader(fmt.Sprintf("Winners Screen (%d results)", report.Summary.Count))
		printScreenReport(report)
	}

	if screenCSV != "" {
		if err := writeCSVFile(screenCSV, report.Results); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("CSV written to %s", screenCSV))
	}
	return nil
}

func writeCSVFile(path string, results []contracts.ScreeningResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	if err := selection.WriteCSV(f, results); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

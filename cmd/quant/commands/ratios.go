package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/winners/internal/contracts"
)

// ratiosCmd represents the ratios command
var ratiosCmd = &cobra.Command{
	Use:   "ratios [ticker]",
	Short: "재무 비율 조회",
	Long: `재무제표 1건에 대한 파생 비율과 3년 매출 CAGR을 계산합니다.
--period 생략 시 최신 보고서를 사용합니다.

Example:
  go run ./cmd/quant ratios AAPL
  go run ./cmd/quant ratios AAPL --period 2023-12-31 --type annual`,
	Args: cobra.ExactArgs(1),
	RunE: runRatios,
}

var (
	ratiosPeriod string
	ratiosType   string
)

func init() {
	rootCmd.AddCommand(ratiosCmd)

	ratiosCmd.Flags().StringVar(&ratiosPeriod, "period", "", "period end date (YYYY-MM-DD)")
	ratiosCmd.Flags().StringVar(&ratiosType, "type", "", "annual | quarterly")
}

func runRatios(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ticker := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var reportType contracts.ReportType
	if ratiosType != "" {
		if reportType, err = contracts.ParseReportType(ratiosType); err != nil {
			return err
		}
	}

	var periodEnd time.Time
	if ratiosPeriod != "" {
		if periodEnd, err = contracts.ParseDate(ratiosPeriod); err != nil {
			return err
		}
		if reportType == "" {
			reportType = contracts.ReportAnnual
		}
	} else {
		reports, err := a.fundamentals.ListReports(ctx, ticker)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		found := false
		for _, r := range reports {
			if reportType == "" || r.ReportType == reportType {
				periodEnd, reportType, found = r.PeriodEndDate, r.ReportType, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: %w", ticker, contracts.ErrNotFound)
		}
	}

	r, err := a.ratios.RatiosFor(ctx, ticker, periodEnd, reportType)
	if err != nil {
		return err
	}
	cagr, err := a.cagr.RevenueCAGR3Y(ctx, ticker)
	if err != nil {
		return fmt.Errorf("revenue cagr: %w", err)
	}

	PrintHeader(fmt.Sprintf("%s %s %s", ticker, contracts.FormatDate(periodEnd), reportType))

	priceDate := "n/a (no price on or after period end)"
	if r.PriceDate != nil {
		priceDate = contracts.FormatDate(*r.PriceDate)
	}

	rows := []struct {
		key   string
		value string
	}{
		{"Price date", priceDate},
		{"Market cap", formatRatio(r.MarketCap)},
		{"Enterprise value", formatRatio(r.EnterpriseValue)},
		{"ROE", formatRatio(r.ROE)},
		{"ROA", formatRatio(r.ROA)},
		{"ROIC", formatRatio(r.ROIC)},
		{"Operating margin", formatRatio(r.OperatingMargin)},
		{"Net margin", formatRatio(r.NetMargin)},
		{"Asset turnover", formatRatio(r.AssetTurnover)},
		{"CFO / net income", formatRatio(r.CFOToNetIncome)},
		{"Capex / revenue", formatRatio(r.CapexToRevenue)},
		{"Free cash flow", formatRatio(r.FreeCashFlow)},
		{"FCF margin", formatRatio(r.FCFMargin)},
		{"Debt / equity", formatRatio(r.DebtToEquity)},
		{"Debt / assets", formatRatio(r.DebtToAssets)},
		{"Equity ratio", formatRatio(r.EquityRatio)},
		{"Financial leverage", formatRatio(r.FinancialLeverage)},
		{"Debt / EBIT", formatRatio(r.DebtToEBIT)},
		{"Current ratio", formatRatio(r.CurrentRatio)},
		{"P/E", formatRatio(r.PE)},
		{"P/FCF", formatRatio(r.PFCF)},
		{"P/B", formatRatio(r.PB)},
		{"EV / FCF", formatRatio(r.EVToFCF)},
		{"EV / revenue", formatRatio(r.EVToRevenue)},
		{"EV / EBIT", formatRatio(r.EVToEBIT)},
		{"Revenue CAGR 3Y", formatRatio(cagr)},
	}
	for _, row := range rows {
		PrintKeyValue(row.key, row.value, 18)
	}
	return nil
}

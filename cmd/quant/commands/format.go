package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/wonny/winners/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed command header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// ---- number formatting ----

// formatMoney abbreviates large amounts: 1.25B, 50.00M, 35.00
func formatMoney(v float64) string {
	d := decimal.NewFromFloat(v)
	units := []struct {
		suffix string
		scale  decimal.Decimal
	}{
		{"T", decimal.New(1, 12)},
		{"B", decimal.New(1, 9)},
		{"M", decimal.New(1, 6)},
	}
	for _, u := range units {
		if d.Abs().GreaterThanOrEqual(u.scale) {
			return d.Div(u.scale).StringFixed(2) + u.suffix
		}
	}
	return d.StringFixed(2)
}

// formatPercent renders a fraction as a percentage: 0.1234 → 12.34%
func formatPercent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// formatRatio renders an optional ratio; undefined is "n/a"
func formatRatio(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(4)
}

// ---- report printers ----

func printRecomputeReport(r *contracts.RecomputeReport) {
	PrintKeyValue("Mode", string(r.Mode.Kind), 14)
	if r.Boundary != nil {
		PrintKeyValue("Boundary", contracts.FormatDate(*r.Boundary), 14)
	}
	PrintKeyValue("Tickers", fmt.Sprintf("%d", r.Tickers), 14)
	PrintKeyValue("Rows upserted", fmt.Sprintf("%d", r.RowsUpserted), 14)
	PrintKeyValue("Duration", r.Duration.String(), 14)
	if len(r.Failed) > 0 {
		PrintWarning(fmt.Sprintf("%d tickers failed", len(r.Failed)))
		PrintList(r.Failed)
	}
}

func printRankings(rankings []contracts.RelativeStrength, top int) {
	widths := []int{5, 10, 12, 8, 8}
	PrintTableHeader([]string{"#", "Ticker", "CumLogRet", "Obs", "RS%"}, widths)
	for i, r := range rankings {
		if top > 0 && i >= top {
			break
		}
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			r.Ticker,
			decimal.NewFromFloat(r.CumulativeReturn).StringFixed(4),
			fmt.Sprintf("%d", r.Observations),
			decimal.NewFromFloat(r.Percentile).StringFixed(1),
		}, widths)
	}
}

func printScreenReport(report *contracts.ScreenReport) {
	c := report.Criteria
	PrintKeyValue("Min price", formatMoney(c.MinPrice), 18)
	PrintKeyValue("Min market cap", formatMoney(c.MinMarketCap), 18)
	PrintKeyValue("Lookback", fmt.Sprintf("%d trading days", c.LookbackDays), 18)
	PrintKeyValue("Min EBIT", formatMoney(c.MinEBIT), 18)
	PrintKeyValue("Min revenue CAGR", formatPercent(c.MinRevenueCAGR), 18)
	PrintKeyValue("Min RS percentile", decimal.NewFromFloat(c.MinRSPercentile).String(), 18)
	PrintSeparator()

	widths := []int{8, 24, 16, 10, 10, 7, 10, 8, 8}
	PrintTableHeader([]string{"Ticker", "Company", "Sector", "Price", "MktCap", "RS%", "EBIT", "CAGR", "P/E"}, widths)
	for _, r := range report.Results {
		pe := "n/a"
		if r.PERatio.Valid {
			pe = decimal.NewFromFloat(r.PERatio.Float64).StringFixed(1)
		}
		PrintTableRow([]string{
			r.Ticker,
			truncate(r.CompanyName, widths[1]),
			truncate(r.Sector, widths[2]),
			decimal.NewFromFloat(r.CurrentPrice).StringFixed(2),
			formatMoney(r.MarketCap),
			decimal.NewFromFloat(r.RSPercentile).StringFixed(1),
			formatMoney(r.EBIT),
			formatPercent(r.RevenueCAGR3Y),
			pe,
		}, widths)
	}

	s := report.Summary
	PrintSeparator()
	PrintKeyValue("Count", fmt.Sprintf("%d", s.Count), 18)
	if s.Count > 0 {
		PrintKeyValue("Avg RS percentile", decimal.NewFromFloat(s.AvgRSPercentile.Float64).StringFixed(1), 18)
		PrintKeyValue("Median price", decimal.NewFromFloat(s.MedianPrice.Float64).StringFixed(2), 18)
		PrintKeyValue("Avg revenue CAGR", formatPercent(s.AvgRevenueCAGR.Float64), 18)
		PrintKeyValue("Total market cap", formatMoney(s.TotalMarketCap), 18)

		sectors := make([]string, 0, len(s.SectorDistribution))
		for sector, n := range s.SectorDistribution {
			sectors = append(sectors, fmt.Sprintf("%s: %d", sector, n))
		}
		sort.Strings(sectors)
		PrintKeyValue("Sectors", strings.Join(sectors, ", "), 18)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

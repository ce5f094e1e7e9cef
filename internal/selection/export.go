package selection

import (
	"encoding/csv"
	"io"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/wonny/winners/internal/contracts"
)

var csvHeader = []string{
	"ticker", "company_name", "sector", "industry", "exchange",
	"current_price", "market_cap", "rs_percentile", "ebit", "revenue_cagr_3y", "pe_ratio",
}

// WriteCSV writes screen results in result order; an undefined P/E is an empty cell
func WriteCSV(w io.Writer, results []contracts.ScreeningResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			r.Ticker, r.CompanyName, r.Sector, r.Industry, r.Exchange,
			formatNumber(r.CurrentPrice, 4),
			formatNumber(r.MarketCap, 0),
			formatNumber(r.RSPercentile, 2),
			formatNumber(r.EBIT, 0),
			formatNumber(r.RevenueCAGR3Y, 6),
			formatNullable(r.PERatio, 4),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func formatNullable(v null.Float, places int32) string {
	if !v.Valid {
		return ""
	}
	return formatNumber(v.Float64, places)
}

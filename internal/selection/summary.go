package selection

import (
	"sort"

	"github.com/guregu/null/v6"

	"github.com/wonny/winners/internal/contracts"
)

// Summarize aggregates a screen for display. Averages and the median are
// undefined for an empty result set.
func Summarize(results []contracts.ScreeningResult) contracts.ScreenSummary {
	summary := contracts.ScreenSummary{
		Count:              len(results),
		SectorDistribution: make(map[string]int),
	}
	if len(results) == 0 {
		return summary
	}

	var rsSum, cagrSum float64
	prices := make([]float64, 0, len(results))
	for _, r := range results {
		rsSum += r.RSPercentile
		cagrSum += r.RevenueCAGR3Y
		summary.TotalMarketCap += r.MarketCap
		prices = append(prices, r.CurrentPrice)

		sector := r.Sector
		if sector == "" {
			sector = "Unknown"
		}
		summary.SectorDistribution[sector]++
	}

	n := float64(len(results))
	summary.AvgRSPercentile = null.FloatFrom(rsSum / n)
	summary.AvgRevenueCAGR = null.FloatFrom(cagrSum / n)
	summary.MedianPrice = null.FloatFrom(median(prices))
	return summary
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

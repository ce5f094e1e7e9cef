package s1_returns

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/winners/internal/contracts"
)

// Compute derives daily log returns from one ticker's price series.
// A return exists only when the observation and its immediate predecessor
// both carry a positive close; gaps are skipped, never zero-filled.
func Compute(series []contracts.PriceObservation) []contracts.LogReturn {
	if len(series) < 2 {
		return nil
	}

	sorted := make([]contracts.PriceObservation, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})

	returns := make([]contracts.LogReturn, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if !prev.HasPositiveClose() || !cur.HasPositiveClose() {
			continue
		}

		v := math.Log(cur.Close.Float64 / prev.Close.Float64)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		returns = append(returns, contracts.LogReturn{
			Ticker:    cur.Ticker,
			TradeDate: cur.TradeDate,
			Value:     v,
		})
	}
	return returns
}

// onOrAfter keeps rows dated on or after boundary
func onOrAfter(rows []contracts.LogReturn, boundary time.Time) []contracts.LogReturn {
	if boundary.IsZero() {
		return rows
	}

	kept := rows[:0]
	for _, r := range rows {
		if !r.TradeDate.Before(boundary) {
			kept = append(kept, r)
		}
	}
	return kept
}

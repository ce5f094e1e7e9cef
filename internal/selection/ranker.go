package selection

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// DefaultMinCoverage is the share of lookback rows a ticker needs to be ranked
const DefaultMinCoverage = 0.8

// Ranker assigns cross-sectional relative strength percentiles
// ⭐ SSOT: RS percentile 계산은 여기서만
type Ranker struct {
	returns     contracts.LogReturnRepository
	minCoverage float64
	logger      *logger.Logger
}

// NewRanker creates a new ranker; minCoverage <= 0 falls back to DefaultMinCoverage
func NewRanker(returns contracts.LogReturnRepository, minCoverage float64, log *logger.Logger) *Ranker {
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}
	return &Ranker{
		returns:     returns,
		minCoverage: minCoverage,
		logger:      log.WithField("module", "selection.ranker"),
	}
}

// RankUniverse ranks every eligible ticker over its most recent lookbackDays returns.
// All window sums are materialized before the single global rank pass.
func (r *Ranker) RankUniverse(ctx context.Context, lookbackDays int) ([]contracts.RelativeStrength, error) {
	if lookbackDays < 1 {
		return nil, contracts.ValidationError{Field: "lookback_days", Message: "must be >= 1"}
	}

	// Phase 1: 종목별 누적 수익률
	windows, err := r.returns.RecentWindows(ctx, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("load return windows: %w", err)
	}

	// Phase 2: 전체 순위
	ranked := RankWindows(windows, lookbackDays, r.minCoverage)

	r.logger.WithFields(map[string]interface{}{
		"lookback_days": lookbackDays,
		"tickers":       len(windows),
		"eligible":      len(ranked),
		"excluded":      len(windows) - len(ranked),
	}).Info("Relative strength ranked")

	return ranked, nil
}

// Percentiles is RankUniverse keyed by ticker
func (r *Ranker) Percentiles(ctx context.Context, lookbackDays int) (map[string]float64, error) {
	ranked, err := r.RankUniverse(ctx, lookbackDays)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(ranked))
	for _, rs := range ranked {
		out[rs.Ticker] = rs.Percentile
	}
	return out, nil
}

// Eligible reports whether observations cover at least minCoverage of lookback
func Eligible(observations, lookback int, minCoverage float64) bool {
	const eps = 1e-9
	return float64(observations)+eps >= minCoverage*float64(lookback)
}

// RankWindows drops ineligible windows and ranks the rest.
// The result is ordered by percentile desc, then ticker.
func RankWindows(windows []contracts.ReturnWindow, lookback int, minCoverage float64) []contracts.RelativeStrength {
	eligible := make([]contracts.ReturnWindow, 0, len(windows))
	for _, w := range windows {
		if Eligible(w.Observations, lookback, minCoverage) {
			eligible = append(eligible, w)
		}
	}

	values := make([]float64, len(eligible))
	for i, w := range eligible {
		values[i] = w.Sum
	}
	pct := PercentRank(values)

	ranked := make([]contracts.RelativeStrength, len(eligible))
	for i, w := range eligible {
		ranked[i] = contracts.RelativeStrength{
			Ticker:           w.Ticker,
			CumulativeReturn: w.Sum,
			Observations:     w.Observations,
			Percentile:       pct[i],
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Percentile != ranked[j].Percentile {
			return ranked[i].Percentile > ranked[j].Percentile
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})
	return ranked
}

// PercentRank maps each value to 100 * rank / (n - 1) where rank is the
// zero-based ascending position, averaged across ties. A single value maps to 0.
func PercentRank(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n <= 1 {
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	for start := 0; start < n; {
		end := start
		for end+1 < n && values[order[end+1]] == values[order[start]] {
			end++
		}

		avg := float64(start+end) / 2
		for k := start; k <= end; k++ {
			out[order[k]] = avg / float64(n-1) * 100
		}
		start = end + 1
	}
	return out
}

package s2_fundamentals

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/winners/internal/contracts"
)

// FirstOnOrAfter returns the observation with the smallest trade date >= ref.
// series must be ordered by trade date.
func FirstOnOrAfter(series []contracts.PriceObservation, ref time.Time) (contracts.PriceObservation, bool) {
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].TradeDate.Before(ref)
	})
	if i == len(series) {
		return contracts.PriceObservation{}, false
	}
	return series[i], true
}

// Joiner resolves the first quote available on or after a fundamentals period end.
// 기준일은 period_end_date (filing_date 아님)
type Joiner struct {
	prices contracts.PriceRepository
}

// NewJoiner creates a point-in-time joiner over the price store
func NewJoiner(prices contracts.PriceRepository) *Joiner {
	return &Joiner{prices: prices}
}

// Resolve returns the joined observation or contracts.ErrJoinMiss
func (j *Joiner) Resolve(ctx context.Context, ticker string, periodEnd time.Time) (*contracts.PriceObservation, error) {
	return j.prices.FirstOnOrAfter(ctx, ticker, periodEnd)
}

// ResolveMany joins every report to its price in one call; misses are absent
func (j *Joiner) ResolveMany(ctx context.Context, reports map[string]contracts.FundamentalReport) (map[string]contracts.PriceObservation, error) {
	refs := make(map[string]time.Time, len(reports))
	for ticker, r := range reports {
		refs[ticker] = r.PeriodEndDate
	}
	return j.prices.FirstOnOrAfterMany(ctx, refs)
}

package contracts

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
)

// TradingDaysPerMonth converts a lookback in months to trading days
const TradingDaysPerMonth = 21

// ScreenCriteria are the thresholds of one screen. Every predicate is inclusive.
// ⭐ SSOT: 스크리닝 조건 기본값은 DefaultScreenCriteria 에서만
type ScreenCriteria struct {
	MinPrice        float64 `json:"min_price" yaml:"min_price"`
	MinMarketCap    float64 `json:"min_market_cap" yaml:"min_market_cap"`
	LookbackDays    int     `json:"lookback_days" yaml:"lookback_days"`
	MinEBIT         float64 `json:"min_ebit" yaml:"min_ebit"`
	MinRevenueCAGR  float64 `json:"min_revenue_cagr" yaml:"min_revenue_cagr"`
	MinRSPercentile float64 `json:"min_rs_percentile" yaml:"min_rs_percentile"`
}

// DefaultScreenCriteria returns the standard "winners" screen
func DefaultScreenCriteria() ScreenCriteria {
	return ScreenCriteria{
		MinPrice:        35,
		MinMarketCap:    50_000_000,
		LookbackDays:    252,
		MinEBIT:         10_000_000,
		MinRevenueCAGR:  0.10,
		MinRSPercentile: 80,
	}
}

// Validate rejects criteria before any data is read
func (c ScreenCriteria) Validate() error {
	if c.LookbackDays < 1 {
		return ValidationError{Field: "lookback_days", Message: "must be >= 1"}
	}

	thresholds := []struct {
		field string
		value float64
	}{
		{"min_price", c.MinPrice},
		{"min_market_cap", c.MinMarketCap},
		{"min_ebit", c.MinEBIT},
		{"min_revenue_cagr", c.MinRevenueCAGR},
		{"min_rs_percentile", c.MinRSPercentile},
	}
	for _, th := range thresholds {
		if math.IsNaN(th.value) || math.IsInf(th.value, 0) {
			return ValidationError{Field: th.field, Message: "must be a finite number"}
		}
	}

	if c.MinRSPercentile < 0 || c.MinRSPercentile > 100 {
		return ValidationError{Field: "min_rs_percentile", Message: "must be within [0, 100]"}
	}

	return nil
}

// CacheKey is a stable textual form of the criteria
func (c ScreenCriteria) CacheKey() string {
	return fmt.Sprintf("p%g_m%g_l%d_e%g_c%g_r%g",
		c.MinPrice, c.MinMarketCap, c.LookbackDays, c.MinEBIT, c.MinRevenueCAGR, c.MinRSPercentile)
}

// RelativeStrength is one ticker's position in the cross-sectional momentum ranking
type RelativeStrength struct {
	Ticker           string  `json:"ticker"`
	CumulativeReturn float64 `json:"cumulative_log_return"`
	Observations     int     `json:"observations"`
	Percentile       float64 `json:"rs_percentile"` // 0 ~ 100
}

// ScreeningResult is one row of a screen, produced fresh per query
type ScreeningResult struct {
	Ticker        string     `json:"ticker"`
	CompanyName   string     `json:"company_name"`
	Sector        string     `json:"sector"`
	Industry      string     `json:"industry"`
	Exchange      string     `json:"exchange"`
	CurrentPrice  float64    `json:"current_price"`
	MarketCap     float64    `json:"market_cap"`
	RSPercentile  float64    `json:"rs_percentile"`
	EBIT          float64    `json:"ebit"`
	RevenueCAGR3Y float64    `json:"revenue_cagr_3y"`
	PERatio       null.Float `json:"pe_ratio"`
}

// ScreenSummary aggregates a result set for display
type ScreenSummary struct {
	Count              int            `json:"count"`
	AvgRSPercentile    null.Float     `json:"avg_rs_percentile"`
	MedianPrice        null.Float     `json:"median_price"`
	AvgRevenueCAGR     null.Float     `json:"avg_revenue_cagr"`
	TotalMarketCap     float64        `json:"total_market_cap"`
	SectorDistribution map[string]int `json:"sector_distribution"`
}

// ScreenReport is the full answer to a screen query
type ScreenReport struct {
	Criteria ScreenCriteria    `json:"criteria"`
	Results  []ScreeningResult `json:"results"`
	Summary  ScreenSummary     `json:"summary"`
}

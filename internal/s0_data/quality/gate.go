// Package quality measures how much of the universe each pipeline stage can see.
package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// Coverage keys
const (
	CoveragePrice        = "price"          // 최신 거래일 종가 보유
	CoverageReturns      = "returns"        // lookback 커버리지 충족
	CoverageFundamentals = "fundamentals"   // 재무제표 1건 이상
	CoverageHistory      = "annual_history" // CAGR 계산 가능한 연간 4건 이상
)

// Config holds minimum coverage per key
type Config struct {
	MinPriceCoverage        float64 `yaml:"min_price_coverage"`
	MinReturnCoverage       float64 `yaml:"min_return_coverage"`
	MinFundamentalsCoverage float64 `yaml:"min_fundamentals_coverage"`
	MinHistoryCoverage      float64 `yaml:"min_history_coverage"`

	LookbackDays int     `yaml:"lookback_days"`
	MinCoverage  float64 `yaml:"min_coverage"` // 종목별 lookback 충족 비율
}

// DefaultConfig returns the thresholds used by data-check
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:        0.95,
		MinReturnCoverage:       0.80,
		MinFundamentalsCoverage: 0.60,
		MinHistoryCoverage:      0.50,
		LookbackDays:            contracts.DefaultScreenCriteria().LookbackDays,
		MinCoverage:             0.8,
	}
}

// Snapshot is the result of one coverage check
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalStocks  int                `json:"total_stocks"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}

// Gate checks data coverage through the repository contracts
type Gate struct {
	instruments  contracts.InstrumentRepository
	prices       contracts.PriceRepository
	returns      contracts.LogReturnRepository
	fundamentals contracts.FundamentalRepository
	config       Config
	logger       *logger.Logger
}

// NewGate creates a new coverage gate
func NewGate(
	instruments contracts.InstrumentRepository,
	prices contracts.PriceRepository,
	returns contracts.LogReturnRepository,
	fundamentals contracts.FundamentalRepository,
	config Config,
	log *logger.Logger,
) *Gate {
	return &Gate{
		instruments:  instruments,
		prices:       prices,
		returns:      returns,
		fundamentals: fundamentals,
		config:       config,
		logger:       log.WithField("module", "quality"),
	}
}

// Check measures coverage at the latest stored trade date
// ⭐ SSOT: S0 데이터 커버리지 검증
func (g *Gate) Check(ctx context.Context) (*Snapshot, error) {
	if g.config.LookbackDays < 1 {
		return nil, contracts.ValidationError{Field: "lookback_days", Message: "must be >= 1"}
	}

	latest, err := g.prices.LatestTradeDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest trade date: %w", err)
	}

	// 1. 대상 종목
	universe, err := g.universe(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Date:        latest,
		TotalStocks: len(universe),
		Coverage:    make(map[string]float64),
	}

	// 2. 단계별 보유 종목
	have, err := g.collect(ctx, latest)
	if err != nil {
		return nil, err
	}

	for key, tickers := range have {
		snapshot.Coverage[key] = ratio(universe, tickers)
	}

	// 3. 점수 및 판정
	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Failures = g.failures(snapshot.Coverage)
	snapshot.Passed = len(snapshot.Failures) == 0

	g.logger.WithFields(map[string]interface{}{
		"date":   contracts.FormatDate(latest),
		"total":  snapshot.TotalStocks,
		"score":  snapshot.QualityScore,
		"passed": snapshot.Passed,
	}).Info("Coverage check completed")

	return snapshot, nil
}

// universe is the active instrument list, or every priced ticker when no
// instrument master is loaded
func (g *Gate) universe(ctx context.Context) (map[string]struct{}, error) {
	instruments, err := g.instruments.ListInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	out := make(map[string]struct{}, len(instruments))
	for _, i := range instruments {
		if i.Active {
			out[i.Ticker] = struct{}{}
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	tickers, err := g.prices.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	for _, t := range tickers {
		out[t] = struct{}{}
	}
	return out, nil
}

func (g *Gate) collect(ctx context.Context, latest time.Time) (map[string]map[string]struct{}, error) {
	have := map[string]map[string]struct{}{
		CoveragePrice:        {},
		CoverageReturns:      {},
		CoverageFundamentals: {},
		CoverageHistory:      {},
	}

	closes, err := g.prices.LatestCloses(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest closes: %w", err)
	}
	for t, p := range closes {
		if p.TradeDate.Equal(latest) {
			have[CoveragePrice][t] = struct{}{}
		}
	}

	windows, err := g.returns.RecentWindows(ctx, g.config.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("recent windows: %w", err)
	}
	need := g.config.MinCoverage * float64(g.config.LookbackDays)
	for _, w := range windows {
		if float64(w.Observations)+1e-9 >= need {
			have[CoverageReturns][w.Ticker] = struct{}{}
		}
	}

	latestReports, err := g.fundamentals.LatestPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest reports: %w", err)
	}
	for t := range latestReports {
		have[CoverageFundamentals][t] = struct{}{}
	}

	annual, err := g.fundamentals.AnnualReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("annual reports: %w", err)
	}
	for t, reports := range annual {
		positive := 0
		for _, r := range reports {
			if r.Revenue.Valid && r.Revenue.Float64 > 0 {
				positive++
			}
		}
		if positive >= 4 {
			have[CoverageHistory][t] = struct{}{}
		}
	}

	return have, nil
}

func (g *Gate) failures(coverage map[string]float64) []string {
	thresholds := []struct {
		key string
		min float64
	}{
		{CoveragePrice, g.config.MinPriceCoverage},
		{CoverageReturns, g.config.MinReturnCoverage},
		{CoverageFundamentals, g.config.MinFundamentalsCoverage},
		{CoverageHistory, g.config.MinHistoryCoverage},
	}

	var out []string
	for _, th := range thresholds {
		if coverage[th.key] < th.min {
			out = append(out, fmt.Sprintf("%s coverage %.1f%% < %.1f%%", th.key, coverage[th.key]*100, th.min*100))
		}
	}
	return out
}

// ratio is |universe ∩ have| / |universe|; 0 for an empty universe
func ratio(universe, have map[string]struct{}) float64 {
	if len(universe) == 0 {
		return 0
	}
	n := 0
	for t := range universe {
		if _, ok := have[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(universe))
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		CoveragePrice:        0.35,
		CoverageReturns:      0.35,
		CoverageFundamentals: 0.15,
		CoverageHistory:      0.15,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}

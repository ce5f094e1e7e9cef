package s2_fundamentals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// ComputeRatios derives every ratio of one report.
// joined is the point-in-time price; nil leaves market-derived fields undefined.
func ComputeRatios(f contracts.FundamentalReport, joined *contracts.PriceObservation) contracts.DerivedRatios {
	r := contracts.DerivedRatios{
		Ticker:        f.Ticker,
		PeriodEndDate: f.PeriodEndDate,
		ReportType:    f.ReportType,
	}

	if joined != nil {
		priceDate := joined.TradeDate
		r.PriceDate = &priceDate
		r.AdjClose = joined.AdjClose
	}

	// Market
	r.MarketCap = mul(r.AdjClose, f.SharesOutstanding)
	r.EnterpriseValue = sub(add(r.MarketCap, f.TotalDebt), f.CashAndEquiv)

	// Profitability
	r.ROE = div(f.NetIncome, f.Equity)
	r.ROA = div(f.NetIncome, f.TotalAssets)
	r.ROIC = div(f.EBIT, add(f.TotalDebt, f.Equity))
	r.OperatingMargin = div(f.EBIT, f.Revenue)
	r.NetMargin = div(f.NetIncome, f.Revenue)
	r.AssetTurnover = div(f.Revenue, f.TotalAssets)

	// Cash flow
	r.CFOToNetIncome = div(f.CFO, f.NetIncome)
	r.CapexToRevenue = div(f.Capex, f.Revenue)
	r.FreeCashFlow = sub(f.CFO, f.Capex)
	r.FCFMargin = div(r.FreeCashFlow, f.Revenue)

	// Leverage
	r.DebtToEquity = div(f.TotalDebt, f.Equity)
	r.DebtToAssets = div(f.TotalDebt, f.TotalAssets)
	r.EquityRatio = div(f.Equity, f.TotalAssets)
	r.FinancialLeverage = div(f.TotalAssets, f.Equity)
	r.DebtToEBIT = div(f.TotalDebt, f.EBIT)
	r.CurrentRatio = div(f.CurrentAssets, f.CurrentLiabilities)

	// Valuation
	r.PE = div(r.MarketCap, f.NetIncome)
	r.PFCF = div(r.MarketCap, r.FreeCashFlow)
	r.PB = div(r.MarketCap, f.Equity)
	r.EVToFCF = div(r.EnterpriseValue, r.FreeCashFlow)
	r.EVToRevenue = div(r.EnterpriseValue, f.Revenue)
	r.EVToEBIT = div(r.EnterpriseValue, f.EBIT)

	return r
}

// RatioEngine derives ratios on read from stored reports and prices
// ⭐ SSOT: 재무 비율 계산은 여기서만
type RatioEngine struct {
	fundamentals contracts.FundamentalRepository
	joiner       *Joiner
	logger       *logger.Logger
}

// NewRatioEngine creates a new ratio engine
func NewRatioEngine(fundamentals contracts.FundamentalRepository, joiner *Joiner, log *logger.Logger) *RatioEngine {
	return &RatioEngine{
		fundamentals: fundamentals,
		joiner:       joiner,
		logger:       log.WithField("module", "s2_fundamentals"),
	}
}

// RatiosFor returns the ratios of one report. A missing report is
// contracts.ErrNotFound; a missing price only leaves market fields undefined.
func (e *RatioEngine) RatiosFor(ctx context.Context, ticker string, periodEnd time.Time, reportType contracts.ReportType) (*contracts.DerivedRatios, error) {
	report, err := e.fundamentals.GetReport(ctx, ticker, periodEnd, reportType)
	if err != nil {
		return nil, fmt.Errorf("get report %s %s: %w", ticker, contracts.FormatDate(periodEnd), err)
	}

	joined, err := e.joiner.Resolve(ctx, ticker, report.PeriodEndDate)
	switch {
	case errors.Is(err, contracts.ErrJoinMiss):
		e.logger.WithFields(map[string]interface{}{
			"ticker":     ticker,
			"period_end": contracts.FormatDate(periodEnd),
		}).Debug("No price on or after period end, market ratios undefined")
		joined = nil
	case err != nil:
		return nil, fmt.Errorf("join price: %w", err)
	}

	ratios := ComputeRatios(*report, joined)
	return &ratios, nil
}

// LatestMarketRatios returns market cap and P/E of each ticker's most recent period.
// Tickers whose period has no joinable price are absent.
func (e *RatioEngine) LatestMarketRatios(ctx context.Context) (map[string]contracts.DerivedRatios, error) {
	latest, err := e.fundamentals.LatestPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest period reports: %w", err)
	}

	joined, err := e.joiner.ResolveMany(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("join prices: %w", err)
	}

	out := make(map[string]contracts.DerivedRatios, len(joined))
	for ticker, report := range latest {
		p, ok := joined[ticker]
		if !ok {
			continue
		}
		out[ticker] = ComputeRatios(report, &p)
	}

	e.logger.WithFields(map[string]interface{}{
		"reports":   len(latest),
		"joined":    len(out),
		"join_miss": len(latest) - len(out),
	}).Debug("Resolved latest market ratios")

	return out, nil
}

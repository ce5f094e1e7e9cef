package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// InstrumentRepository reads the externally maintained instrument master
type InstrumentRepository interface {
	ListInstruments(ctx context.Context) ([]Instrument, error)
	GetInstrument(ctx context.Context, ticker string) (*Instrument, error)
}

// PriceRepository reads daily price observations
type PriceRepository interface {
	// Tickers lists every ticker with at least one observation
	Tickers(ctx context.Context) ([]string, error)

	// LatestTradeDate is the most recent trade date across all tickers.
	// Returns ErrNotFound when no prices are stored.
	LatestTradeDate(ctx context.Context) (time.Time, error)

	// SeriesSince returns observations on or after from in trade date order,
	// preceded by the single latest observation before from (if any).
	// A zero from returns the full history.
	SeriesSince(ctx context.Context, ticker string, from time.Time) ([]PriceObservation, error)

	// LatestCloses returns, per ticker, the latest observation with a non-null close
	LatestCloses(ctx context.Context) (map[string]PriceObservation, error)

	// FirstOnOrAfter returns the earliest observation with trade_date >= ref.
	// Returns ErrJoinMiss when there is none.
	FirstOnOrAfter(ctx context.Context, ticker string, ref time.Time) (*PriceObservation, error)

	// FirstOnOrAfterMany resolves FirstOnOrAfter for many tickers at once.
	// Misses are absent from the result.
	FirstOnOrAfterMany(ctx context.Context, refs map[string]time.Time) (map[string]PriceObservation, error)

	// PriceWatermark is MAX(trade_date) and the row count; zero when empty
	PriceWatermark(ctx context.Context) (DataWatermark, error)
}

// LogReturnRepository stores derived log returns
type LogReturnRepository interface {
	// UpsertLogReturns inserts or replaces rows by (ticker, trade_date)
	UpsertLogReturns(ctx context.Context, rows []LogReturn) (int64, error)

	// ListLogReturns returns one ticker's rows in trade date order
	ListLogReturns(ctx context.Context, ticker string) ([]LogReturn, error)

	// RecentWindows sums each ticker's most recent lookback rows
	RecentWindows(ctx context.Context, lookback int) ([]ReturnWindow, error)

	// ReturnsWatermark is MAX(trade_date) and the row count; zero when empty
	ReturnsWatermark(ctx context.Context) (DataWatermark, error)
}

// FundamentalRepository reads filed statements
type FundamentalRepository interface {
	GetReport(ctx context.Context, ticker string, periodEnd time.Time, reportType ReportType) (*FundamentalReport, error)
	ListReports(ctx context.Context, ticker string) ([]FundamentalReport, error)

	// LatestQuarterly returns each ticker's most recent quarterly report
	LatestQuarterly(ctx context.Context) (map[string]FundamentalReport, error)

	// LatestPeriod returns each ticker's most recent report of any type;
	// a quarterly report wins a same-date tie.
	LatestPeriod(ctx context.Context) (map[string]FundamentalReport, error)

	// AnnualReports returns every annual report grouped by ticker
	AnnualReports(ctx context.Context) (map[string][]FundamentalReport, error)

	// FundamentalsWatermark is MAX(period_end_date) and the row count; zero when empty
	FundamentalsWatermark(ctx context.Context) (DataWatermark, error)
}

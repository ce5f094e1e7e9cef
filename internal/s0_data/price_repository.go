package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: 가격 데이터 조회는 여기서만 (적재는 외부 파이프라인)
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

const ohlcvColumns = `
	o.ticker,
	o.trade_date,
	o.price_open::float8,
	o.price_high::float8,
	o.price_low::float8,
	o.price_close::float8,
	o.adj_close::float8,
	o.volume::bigint,
	o.dividend::float8,
	o.split::float8
`

func scanPrice(row rowScanner) (contracts.PriceObservation, error) {
	var p contracts.PriceObservation
	err := row.Scan(
		&p.Ticker, &p.TradeDate,
		&p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose,
		&p.Volume, &p.Dividend, &p.Split,
	)
	return p, err
}

func (r *PriceRepository) queryPrices(ctx context.Context, query string, args ...any) ([]contracts.PriceObservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var prices []contracts.PriceObservation
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Tickers lists every ticker with at least one observation
func (r *PriceRepository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ticker FROM ohlcv ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// LatestTradeDate returns MAX(trade_date) over all prices
func (r *PriceRepository) LatestTradeDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	if err := r.pool.QueryRow(ctx, `SELECT MAX(trade_date) FROM ohlcv`).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("query latest trade date: %w", err)
	}
	if latest == nil {
		return time.Time{}, contracts.ErrNotFound
	}
	return *latest, nil
}

// SeriesSince returns the observations on or after from plus the one right before it
func (r *PriceRepository) SeriesSince(ctx context.Context, ticker string, from time.Time) ([]contracts.PriceObservation, error) {
	if from.IsZero() {
		return r.queryPrices(ctx, `
			SELECT `+ohlcvColumns+`
			FROM ohlcv o
			WHERE o.ticker = $1
			ORDER BY o.trade_date
		`, ticker)
	}

	// 경계 직전 1건을 포함해야 경계일의 수익률을 계산할 수 있음
	return r.queryPrices(ctx, `
		SELECT `+ohlcvColumns+`
		FROM ohlcv o
		WHERE o.ticker = $1
		  AND o.trade_date >= COALESCE(
			(SELECT MAX(p.trade_date) FROM ohlcv p WHERE p.ticker = $1 AND p.trade_date < $2),
			$2)
		ORDER BY o.trade_date
	`, ticker, from)
}

// LatestCloses returns each ticker's latest observation with a non-null close
func (r *PriceRepository) LatestCloses(ctx context.Context) (map[string]contracts.PriceObservation, error) {
	prices, err := r.queryPrices(ctx, `
		SELECT DISTINCT ON (o.ticker) `+ohlcvColumns+`
		FROM ohlcv o
		WHERE o.price_close IS NOT NULL
		ORDER BY o.ticker, o.trade_date DESC
	`)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]contracts.PriceObservation, len(prices))
	for _, p := range prices {
		latest[p.Ticker] = p
	}
	return latest, nil
}

// FirstOnOrAfter returns the earliest observation with trade_date >= ref
func (r *PriceRepository) FirstOnOrAfter(ctx context.Context, ticker string, ref time.Time) (*contracts.PriceObservation, error) {
	query := `
		SELECT ` + ohlcvColumns + `
		FROM ohlcv o
		WHERE o.ticker = $1 AND o.trade_date >= $2
		ORDER BY o.trade_date
		LIMIT 1
	`

	p, err := scanPrice(r.pool.QueryRow(ctx, query, ticker, ref))
	if err != nil {
		return nil, mapNoRows(err, contracts.ErrJoinMiss)
	}
	return &p, nil
}

// FirstOnOrAfterMany resolves many point-in-time joins in one round trip
func (r *PriceRepository) FirstOnOrAfterMany(ctx context.Context, refs map[string]time.Time) (map[string]contracts.PriceObservation, error) {
	joined := make(map[string]contracts.PriceObservation, len(refs))
	if len(refs) == 0 {
		return joined, nil
	}

	tickers := make([]string, 0, len(refs))
	dates := make([]time.Time, 0, len(refs))
	for t, d := range refs {
		tickers = append(tickers, t)
		dates = append(dates, d)
	}

	prices, err := r.queryPrices(ctx, `
		SELECT `+ohlcvColumns+`
		FROM unnest($1::text[], $2::date[]) AS ref(ticker, ref_date)
		CROSS JOIN LATERAL (
			SELECT *
			FROM ohlcv x
			WHERE x.ticker = ref.ticker AND x.trade_date >= ref.ref_date
			ORDER BY x.trade_date
			LIMIT 1
		) o
	`, tickers, dates)
	if err != nil {
		return nil, err
	}

	for _, p := range prices {
		joined[p.Ticker] = p
	}
	return joined, nil
}

// PriceWatermark returns MAX(trade_date) and the row count of ohlcv
func (r *PriceRepository) PriceWatermark(ctx context.Context) (contracts.DataWatermark, error) {
	w, err := queryWatermark(ctx, r.pool, `SELECT MAX(trade_date), COUNT(*) FROM ohlcv`)
	if err != nil {
		return w, fmt.Errorf("price watermark: %w", err)
	}
	return w, nil
}

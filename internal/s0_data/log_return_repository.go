package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/internal/contracts"
)

// upsertChunkSize bounds the number of statements per pgx.Batch
const upsertChunkSize = 1000

// LogReturnRepository implements contracts.LogReturnRepository
// ⭐ SSOT: daily_log_returns 쓰기는 여기서만
type LogReturnRepository struct {
	pool *pgxpool.Pool
}

// NewLogReturnRepository creates a new log return repository
func NewLogReturnRepository(pool *pgxpool.Pool) *LogReturnRepository {
	return &LogReturnRepository{pool: pool}
}

// UpsertLogReturns writes rows keyed by (ticker, trade_date); later writes replace earlier ones
func (r *LogReturnRepository) UpsertLogReturns(ctx context.Context, rows []contracts.LogReturn) (int64, error) {
	query := `
		INSERT INTO daily_log_returns (ticker, trade_date, log_return)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			log_return = EXCLUDED.log_return
	`

	var affected int64
	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		batch := &pgx.Batch{}
		for _, row := range chunk {
			batch.Queue(query, row.Ticker, row.TradeDate, row.Value)
		}

		br := r.pool.SendBatch(ctx, batch)
		for range chunk {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return affected, fmt.Errorf("upsert log returns: %w", err)
			}
			affected += tag.RowsAffected()
		}
		if err := br.Close(); err != nil {
			return affected, fmt.Errorf("close batch: %w", err)
		}
	}

	return affected, nil
}

// ListLogReturns returns one ticker's rows in trade date order
func (r *LogReturnRepository) ListLogReturns(ctx context.Context, ticker string) ([]contracts.LogReturn, error) {
	query := `
		SELECT ticker, trade_date, log_return::float8
		FROM daily_log_returns
		WHERE ticker = $1
		ORDER BY trade_date
	`

	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query log returns: %w", err)
	}
	defer rows.Close()

	var returns []contracts.LogReturn
	for rows.Next() {
		var lr contracts.LogReturn
		if err := rows.Scan(&lr.Ticker, &lr.TradeDate, &lr.Value); err != nil {
			return nil, fmt.Errorf("scan log return: %w", err)
		}
		returns = append(returns, lr)
	}
	return returns, rows.Err()
}

// RecentWindows sums each ticker's most recent lookback rows by recency rank
func (r *LogReturnRepository) RecentWindows(ctx context.Context, lookback int) ([]contracts.ReturnWindow, error) {
	query := `
		SELECT ticker, SUM(log_return)::float8, COUNT(*)
		FROM (
			SELECT ticker, log_return,
			       ROW_NUMBER() OVER (PARTITION BY ticker ORDER BY trade_date DESC) AS rn
			FROM daily_log_returns
		) recent
		WHERE rn <= $1
		GROUP BY ticker
		ORDER BY ticker
	`

	rows, err := r.pool.Query(ctx, query, lookback)
	if err != nil {
		return nil, fmt.Errorf("query return windows: %w", err)
	}
	defer rows.Close()

	var windows []contracts.ReturnWindow
	for rows.Next() {
		var w contracts.ReturnWindow
		if err := rows.Scan(&w.Ticker, &w.Sum, &w.Observations); err != nil {
			return nil, fmt.Errorf("scan return window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// ReturnsWatermark returns MAX(trade_date) and the row count of daily_log_returns
func (r *LogReturnRepository) ReturnsWatermark(ctx context.Context) (contracts.DataWatermark, error) {
	w, err := queryWatermark(ctx, r.pool, `SELECT MAX(trade_date), COUNT(*) FROM daily_log_returns`)
	if err != nil {
		return w, fmt.Errorf("log return watermark: %w", err)
	}
	return w, nil
}

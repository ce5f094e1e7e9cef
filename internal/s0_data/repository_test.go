package s0_data

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/config"
	"github.com/wonny/winners/pkg/database"
)

// 통합 테스트: DATABASE_URL 과 파이프라인 테이블이 있어야 실행됨
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	var exists bool
	err = db.Pool.QueryRow(context.Background(), `SELECT to_regclass('daily_log_returns') IS NOT NULL`).Scan(&exists)
	require.NoError(t, err)
	if !exists {
		t.Skip("daily_log_returns table missing, skipping integration test")
	}
	return db
}

func TestLogReturnRepository_UpsertIsLastWriterWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewLogReturnRepository(db.Pool)
	ctx := context.Background()

	const ticker = "ZZTEST_S0"
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM daily_log_returns WHERE ticker = $1`, ticker)
	})

	d1 := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	_, err := repo.UpsertLogReturns(ctx, []contracts.LogReturn{
		{Ticker: ticker, TradeDate: d1, Value: 0.01},
		{Ticker: ticker, TradeDate: d2, Value: 0.02},
	})
	require.NoError(t, err)

	// same key again replaces the value
	_, err = repo.UpsertLogReturns(ctx, []contracts.LogReturn{{Ticker: ticker, TradeDate: d2, Value: -0.03}})
	require.NoError(t, err)

	rows, err := repo.ListLogReturns(ctx, ticker)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.01, rows[0].Value, 1e-12)
	assert.InDelta(t, -0.03, rows[1].Value, 1e-12)

	windows, err := repo.RecentWindows(ctx, 1)
	require.NoError(t, err)
	for _, w := range windows {
		if w.Ticker == ticker {
			assert.Equal(t, 1, w.Observations)
			assert.InDelta(t, -0.03, w.Sum, 1e-12)
		}
	}
}

func TestPriceRepository_ReadPaths(t *testing.T) {
	db := newTestDB(t)
	repo := NewPriceRepository(db.Pool)
	ctx := context.Background()

	latest, err := repo.LatestTradeDate(ctx)
	if errors.Is(err, contracts.ErrNotFound) {
		t.Skip("ohlcv is empty")
	}
	require.NoError(t, err)

	tickers, err := repo.Tickers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tickers)

	series, err := repo.SeriesSince(ctx, tickers[0], latest)
	require.NoError(t, err)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].TradeDate.Before(series[i].TradeDate))
	}

	_, err = repo.FirstOnOrAfter(ctx, tickers[0], latest.AddDate(1, 0, 0))
	assert.ErrorIs(t, err, contracts.ErrJoinMiss)
}

func TestFundamentalRepository_GetReportNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewFundamentalRepository(db.Pool)

	_, err := repo.GetReport(context.Background(), "ZZ_NO_SUCH", time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC), contracts.ReportAnnual)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

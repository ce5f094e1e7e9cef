package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/winners/internal/contracts"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func obs(ticker string, n int, close float64) contracts.PriceObservation {
	return contracts.PriceObservation{
		Ticker:    ticker,
		TradeDate: day(n),
		Close:     null.FloatFrom(close),
		AdjClose:  null.FloatFrom(close),
	}
}

func TestStore_Prices(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.LatestTradeDate(ctx)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	// 순서 무관하게 추가, 같은 날짜는 교체
	s.AddPrices(obs("AAA", 3, 12), obs("AAA", 1, 10), obs("AAA", 2, 11), obs("BBB", 5, 50))
	s.AddPrices(obs("AAA", 2, 11.5))

	tickers, err := s.Tickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, tickers)

	latest, err := s.LatestTradeDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(5), latest)

	all, err := s.SeriesSince(ctx, "AAA", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 11.5, all[1].Close.Float64)

	// one observation before the boundary is included
	tail, err := s.SeriesSince(ctx, "AAA", day(3))
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, day(2), tail[0].TradeDate)

	p, err := s.FirstOnOrAfter(ctx, "AAA", day(2).Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, day(2), p.TradeDate)

	_, err = s.FirstOnOrAfter(ctx, "AAA", day(4))
	assert.ErrorIs(t, err, contracts.ErrJoinMiss)

	many, err := s.FirstOnOrAfterMany(ctx, map[string]time.Time{"AAA": day(0), "BBB": day(6), "ZZZ": day(0)})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.Equal(t, day(1), many["AAA"].TradeDate)
}

func TestStore_LatestClosesSkipsNullClose(t *testing.T) {
	s := New()
	s.AddPrices(obs("AAA", 1, 10), contracts.PriceObservation{Ticker: "AAA", TradeDate: day(2)})

	closes, err := s.LatestCloses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, day(1), closes["AAA"].TradeDate)
}

func TestStore_LogReturns(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.UpsertLogReturns(ctx, []contracts.LogReturn{
		{Ticker: "AAA", TradeDate: day(2), Value: 0.02},
		{Ticker: "AAA", TradeDate: day(1), Value: 0.01},
		{Ticker: "AAA", TradeDate: day(3), Value: 0.03},
		{Ticker: "BBB", TradeDate: day(1), Value: -0.01},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// upsert replaces by key
	_, err = s.UpsertLogReturns(ctx, []contracts.LogReturn{{Ticker: "AAA", TradeDate: day(3), Value: 0.05}})
	require.NoError(t, err)

	rows, err := s.ListLogReturns(ctx, "AAA")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, day(1), rows[0].TradeDate)
	assert.Equal(t, 0.05, rows[2].Value)
	assert.Len(t, s.AllLogReturns(), 4)

	windows, err := s.RecentWindows(ctx, 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "AAA", windows[0].Ticker)
	assert.Equal(t, 2, windows[0].Observations)
	assert.InDelta(t, 0.07, windows[0].Sum, 1e-12)
	assert.Equal(t, 1, windows[1].Observations)
}

func TestStore_Fundamentals(t *testing.T) {
	ctx := context.Background()
	s := New()

	q4 := contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(0), ReportType: contracts.ReportQuarterly, EBIT: null.FloatFrom(4)}
	fy := contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(0), ReportType: contracts.ReportAnnual, EBIT: null.FloatFrom(16)}
	q3 := contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(-90), ReportType: contracts.ReportQuarterly}
	fyOld := contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(-365), ReportType: contracts.ReportAnnual}
	s.AddReports(fyOld, fy, q3, q4)

	got, err := s.GetReport(ctx, "AAA", day(0), contracts.ReportAnnual)
	require.NoError(t, err)
	assert.Equal(t, 16.0, got.EBIT.Float64)

	_, err = s.GetReport(ctx, "AAA", day(1), contracts.ReportAnnual)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	list, err := s.ListReports(ctx, "AAA")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, contracts.ReportQuarterly, list[0].ReportType)
	assert.Equal(t, day(-365), list[3].PeriodEndDate)

	latest, err := s.LatestPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.ReportQuarterly, latest["AAA"].ReportType)

	quarterly, err := s.LatestQuarterly(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(0), quarterly["AAA"].PeriodEndDate)

	annual, err := s.AnnualReports(ctx)
	require.NoError(t, err)
	require.Len(t, annual["AAA"], 2)
	assert.Equal(t, day(0), annual["AAA"][0].PeriodEndDate)
}

func TestStore_Instruments(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddInstruments(
		contracts.Instrument{Ticker: "BBB", Name: "Beta"},
		contracts.Instrument{Ticker: "AAA", Name: "Alpha"},
	)

	list, err := s.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AAA", list[0].Ticker)

	_, err = s.GetInstrument(ctx, "ZZZ")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestStore_UpsertLogReturnsMergesByKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertLogReturns(ctx, []contracts.LogReturn{
		{Ticker: "BBB", TradeDate: day(1), Value: 0.2},
		{Ticker: "AAA", TradeDate: day(2), Value: 0.1},
		{Ticker: "AAA", TradeDate: day(1), Value: 0.3},
	})
	require.NoError(t, err)

	// same key again: last writer wins, no duplicate row
	_, err = s.UpsertLogReturns(ctx, []contracts.LogReturn{{Ticker: "AAA", TradeDate: day(2), Value: -0.5}})
	require.NoError(t, err)

	all := s.AllLogReturns()
	require.Len(t, all, 3)
	assert.Equal(t, []contracts.LogReturn{
		{Ticker: "AAA", TradeDate: day(1), Value: 0.3},
		{Ticker: "AAA", TradeDate: day(2), Value: -0.5},
		{Ticker: "BBB", TradeDate: day(1), Value: 0.2},
	}, all)

	rows, err := s.ListLogReturns(ctx, "AAA")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStore_Watermarks(t *testing.T) {
	ctx := context.Background()
	s := New()

	empty, err := s.PriceWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.DataWatermark{}, empty)

	s.AddPrices(obs("AAA", 1, 10), obs("AAA", 2, 11), obs("BBB", 4, 50))
	px, err := s.PriceWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.DataWatermark{Latest: day(4), Rows: 3}, px)

	_, err = s.UpsertLogReturns(ctx, []contracts.LogReturn{
		{Ticker: "AAA", TradeDate: day(2), Value: 0.1},
		{Ticker: "BBB", TradeDate: day(1), Value: 0.1},
	})
	require.NoError(t, err)
	lr, err := s.ReturnsWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.DataWatermark{Latest: day(2), Rows: 2}, lr)

	s.AddReports(
		contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(30), ReportType: contracts.ReportQuarterly},
		contracts.FundamentalReport{Ticker: "AAA", PeriodEndDate: day(0), ReportType: contracts.ReportAnnual},
	)
	fd, err := s.FundamentalsWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.DataWatermark{Latest: day(30), Rows: 2}, fd)
}

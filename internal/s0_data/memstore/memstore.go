// Package memstore keeps every repository contract in process memory
// for unit tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/winners/internal/contracts"
)

// Store implements all repository interfaces of contracts
type Store struct {
	mu sync.RWMutex

	instruments map[string]contracts.Instrument
	prices      map[string][]contracts.PriceObservation // trade_date 오름차순
	returns     []contracts.LogReturn                   // ticker, trade_date 순
	reports     []contracts.FundamentalReport
}

var (
	_ contracts.InstrumentRepository  = (*Store)(nil)
	_ contracts.PriceRepository       = (*Store)(nil)
	_ contracts.LogReturnRepository   = (*Store)(nil)
	_ contracts.FundamentalRepository = (*Store)(nil)
)

// New creates an empty store
func New() *Store {
	return &Store{
		instruments: make(map[string]contracts.Instrument),
		prices:      make(map[string][]contracts.PriceObservation),
	}
}

// AddInstruments registers reference rows
func (s *Store) AddInstruments(instruments ...contracts.Instrument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range instruments {
		s.instruments[i.Ticker] = i
	}
}

// AddPrices appends observations, replacing any existing row with the same date
func (s *Store) AddPrices(prices ...contracts.PriceObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prices {
		series := s.prices[p.Ticker]
		replaced := false
		for i := range series {
			if series[i].TradeDate.Equal(p.TradeDate) {
				series[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			series = append(series, p)
		}
		sort.Slice(series, func(i, j int) bool { return series[i].TradeDate.Before(series[j].TradeDate) })
		s.prices[p.Ticker] = series
	}
}

// AddReports appends fundamental reports
func (s *Store) AddReports(reports ...contracts.FundamentalReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, reports...)
}

// ---- instruments ----

// ListInstruments returns every instrument ordered by ticker
func (s *Store) ListInstruments(_ context.Context) ([]contracts.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Instrument, 0, len(s.instruments))
	for _, i := range s.instruments {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// GetInstrument returns one instrument or contracts.ErrNotFound
func (s *Store) GetInstrument(_ context.Context, ticker string) (*contracts.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.instruments[ticker]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &i, nil
}

// ---- prices ----

// Tickers lists every ticker with at least one observation
func (s *Store) Tickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.prices))
	for t, series := range s.prices {
		if len(series) > 0 {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// LatestTradeDate returns the most recent trade date across all tickers
func (s *Store) LatestTradeDate(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, series := range s.prices {
		if n := len(series); n > 0 && series[n-1].TradeDate.After(latest) {
			latest = series[n-1].TradeDate
		}
	}
	if latest.IsZero() {
		return time.Time{}, contracts.ErrNotFound
	}
	return latest, nil
}

// SeriesSince returns observations on or after from plus the one right before it
func (s *Store) SeriesSince(_ context.Context, ticker string, from time.Time) ([]contracts.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.prices[ticker]
	start := sort.Search(len(series), func(i int) bool { return !series[i].TradeDate.Before(from) })
	if start > 0 {
		start--
	}
	if from.IsZero() {
		start = 0
	}

	out := make([]contracts.PriceObservation, len(series)-start)
	copy(out, series[start:])
	return out, nil
}

// LatestCloses returns each ticker's latest observation with a non-null close
func (s *Store) LatestCloses(_ context.Context) (map[string]contracts.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.PriceObservation)
	for t, series := range s.prices {
		for i := len(series) - 1; i >= 0; i-- {
			if series[i].Close.Valid {
				out[t] = series[i]
				break
			}
		}
	}
	return out, nil
}

func (s *Store) firstOnOrAfter(ticker string, ref time.Time) (contracts.PriceObservation, bool) {
	series := s.prices[ticker]
	i := sort.Search(len(series), func(i int) bool { return !series[i].TradeDate.Before(ref) })
	if i == len(series) {
		return contracts.PriceObservation{}, false
	}
	return series[i], true
}

// FirstOnOrAfter returns the earliest observation with trade_date >= ref
func (s *Store) FirstOnOrAfter(_ context.Context, ticker string, ref time.Time) (*contracts.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.firstOnOrAfter(ticker, ref)
	if !ok {
		return nil, contracts.ErrJoinMiss
	}
	return &p, nil
}

// FirstOnOrAfterMany resolves many point-in-time joins; misses are absent
func (s *Store) FirstOnOrAfterMany(_ context.Context, refs map[string]time.Time) (map[string]contracts.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.PriceObservation, len(refs))
	for t, ref := range refs {
		if p, ok := s.firstOnOrAfter(t, ref); ok {
			out[t] = p
		}
	}
	return out, nil
}

// PriceWatermark returns the newest trade date and the observation count
func (s *Store) PriceWatermark(_ context.Context) (contracts.DataWatermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w contracts.DataWatermark
	for _, series := range s.prices {
		w.Rows += int64(len(series))
		if n := len(series); n > 0 && series[n-1].TradeDate.After(w.Latest) {
			w.Latest = series[n-1].TradeDate
		}
	}
	return w, nil
}

// ---- log returns ----

// UpsertLogReturns merges rows by (ticker, trade_date), last writer wins
func (s *Store) UpsertLogReturns(_ context.Context, rows []contracts.LogReturn) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.returns = contracts.MergeLogReturns(s.returns, rows)
	return int64(len(rows)), nil
}

// ListLogReturns returns one ticker's rows in trade date order
func (s *Store) ListLogReturns(_ context.Context, ticker string) ([]contracts.LogReturn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.LogReturn
	for _, r := range s.returns {
		if r.Ticker == ticker {
			out = append(out, r)
		}
	}
	return out, nil
}

// AllLogReturns returns every stored row ordered by ticker and date
func (s *Store) AllLogReturns() []contracts.LogReturn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.LogReturn, len(s.returns))
	copy(out, s.returns)
	return out
}

// RecentWindows sums each ticker's most recent lookback rows
func (s *Store) RecentWindows(_ context.Context, lookback int) ([]contracts.ReturnWindow, error) {
	byTicker := make(map[string][]contracts.LogReturn)
	for _, r := range s.AllLogReturns() {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}

	windows := make([]contracts.ReturnWindow, 0, len(byTicker))
	for t, rows := range byTicker {
		if len(rows) > lookback {
			rows = rows[len(rows)-lookback:]
		}
		w := contracts.ReturnWindow{Ticker: t, Observations: len(rows)}
		for _, r := range rows {
			w.Sum += r.Value
		}
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Ticker < windows[j].Ticker })
	return windows, nil
}

// ReturnsWatermark returns the newest return date and the row count
func (s *Store) ReturnsWatermark(_ context.Context) (contracts.DataWatermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := contracts.DataWatermark{Rows: int64(len(s.returns))}
	// ticker 순 정렬이라 마지막 행이 최신이 아님
	for _, r := range s.returns {
		if r.TradeDate.After(w.Latest) {
			w.Latest = r.TradeDate
		}
	}
	return w, nil
}

// ---- fundamentals ----

// GetReport returns one report or contracts.ErrNotFound
func (s *Store) GetReport(_ context.Context, ticker string, periodEnd time.Time, reportType contracts.ReportType) (*contracts.FundamentalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.reports {
		if f.Ticker == ticker && f.PeriodEndDate.Equal(periodEnd) && f.ReportType == reportType {
			f := f
			return &f, nil
		}
	}
	return nil, contracts.ErrNotFound
}

// newer orders reports by period desc, quarterly first on a tie
func newer(a, b contracts.FundamentalReport) bool {
	if !a.PeriodEndDate.Equal(b.PeriodEndDate) {
		return a.PeriodEndDate.After(b.PeriodEndDate)
	}
	return a.ReportType == contracts.ReportQuarterly && b.ReportType != contracts.ReportQuarterly
}

// ListReports returns one ticker's reports, newest period first
func (s *Store) ListReports(_ context.Context, ticker string) ([]contracts.FundamentalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.FundamentalReport
	for _, f := range s.reports {
		if f.Ticker == ticker {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return newer(out[i], out[j]) })
	return out, nil
}

func (s *Store) latest(keep func(contracts.FundamentalReport) bool) map[string]contracts.FundamentalReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.FundamentalReport)
	for _, f := range s.reports {
		if !keep(f) {
			continue
		}
		if cur, ok := out[f.Ticker]; !ok || newer(f, cur) {
			out[f.Ticker] = f
		}
	}
	return out
}

// LatestQuarterly returns each ticker's most recent quarterly report
func (s *Store) LatestQuarterly(_ context.Context) (map[string]contracts.FundamentalReport, error) {
	return s.latest(func(f contracts.FundamentalReport) bool {
		return f.ReportType == contracts.ReportQuarterly
	}), nil
}

// LatestPeriod returns each ticker's most recent report; quarterly wins a same-date tie
func (s *Store) LatestPeriod(_ context.Context) (map[string]contracts.FundamentalReport, error) {
	return s.latest(func(contracts.FundamentalReport) bool { return true }), nil
}

// AnnualReports returns every annual report grouped by ticker, newest first
func (s *Store) AnnualReports(_ context.Context) (map[string][]contracts.FundamentalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]contracts.FundamentalReport)
	for _, f := range s.reports {
		if f.ReportType == contracts.ReportAnnual {
			out[f.Ticker] = append(out[f.Ticker], f)
		}
	}
	for t := range out {
		rows := out[t]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].PeriodEndDate.After(rows[j].PeriodEndDate) })
	}
	return out, nil
}

// FundamentalsWatermark returns the newest period end and the report count
func (s *Store) FundamentalsWatermark(_ context.Context) (contracts.DataWatermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := contracts.DataWatermark{Rows: int64(len(s.reports))}
	for _, f := range s.reports {
		if f.PeriodEndDate.After(w.Latest) {
			w.Latest = f.PeriodEndDate
		}
	}
	return w, nil
}

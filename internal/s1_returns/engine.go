package s1_returns

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// Invalidator is notified after log returns change (screen result cache)
type Invalidator interface {
	BumpGeneration(ctx context.Context) (int64, error)
}

// Engine recomputes daily log returns from stored prices
// ⭐ SSOT: daily_log_returns 갱신은 이 엔진을 통해서만
type Engine struct {
	prices      contracts.PriceRepository
	returns     contracts.LogReturnRepository
	invalidator Invalidator
	workers     int
	locks       *tickerLocks
	logger      *logger.Logger
}

// NewEngine creates a new return engine with the given parallelism
func NewEngine(prices contracts.PriceRepository, returns contracts.LogReturnRepository, workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		prices:  prices,
		returns: returns,
		workers: workers,
		locks:   newTickerLocks(),
		logger:  log.WithField("module", "s1_returns"),
	}
}

// WithInvalidator registers a cache to bump after every run that wrote rows
func (e *Engine) WithInvalidator(inv Invalidator) *Engine {
	e.invalidator = inv
	return e
}

// Recompute dispatches on mode; invalid modes fail before any I/O
func (e *Engine) Recompute(ctx context.Context, mode contracts.RecomputeMode) (*contracts.RecomputeReport, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if mode.Kind == contracts.RecomputeFull {
		return e.RebuildAll(ctx)
	}
	return e.RecomputeRecent(ctx, mode.WindowDays)
}

// RebuildAll recomputes every ticker's full history. Safe to re-run.
func (e *Engine) RebuildAll(ctx context.Context) (*contracts.RecomputeReport, error) {
	tickers, err := e.prices.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	return e.run(ctx, contracts.FullRebuild(), tickers, time.Time{})
}

// RecomputeRecent recomputes returns dated within windowDays of the latest
// stored trade date. The window is anchored on data, not on the wall clock.
func (e *Engine) RecomputeRecent(ctx context.Context, windowDays int) (*contracts.RecomputeReport, error) {
	mode := contracts.Incremental(windowDays)
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	latest, err := e.prices.LatestTradeDate(ctx)
	if errors.Is(err, contracts.ErrNotFound) {
		e.logger.Warn("No prices stored, nothing to recompute")
		return &contracts.RecomputeReport{Mode: mode}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest trade date: %w", err)
	}

	tickers, err := e.prices.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	boundary := latest.AddDate(0, 0, -windowDays)
	return e.run(ctx, mode, tickers, boundary)
}

func (e *Engine) run(ctx context.Context, mode contracts.RecomputeMode, tickers []string, boundary time.Time) (*contracts.RecomputeReport, error) {
	start := time.Now()
	report := &contracts.RecomputeReport{
		Mode:    mode,
		Tickers: len(tickers),
	}
	if !boundary.IsZero() {
		report.Boundary = &boundary
	}

	e.logger.WithFields(map[string]interface{}{
		"mode":     mode.Kind,
		"tickers":  len(tickers),
		"workers":  e.workers,
		"boundary": boundary.Format("2006-01-02"),
	}).Info("Starting log return recompute")

	var (
		rows     atomic.Int64
		failedMu sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := e.recomputeTicker(gctx, ticker, boundary)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// 종목 단위 실패는 기록만 하고 계속 진행 (재실행하면 이어서 처리됨)
				e.logger.WithError(err).WithField("ticker", ticker).Warn("Ticker recompute failed")
				failedMu.Lock()
				report.Failed = append(report.Failed, ticker)
				failedMu.Unlock()
				return nil
			}
			rows.Add(n)
			return nil
		})
	}

	err := g.Wait()
	report.RowsUpserted = rows.Load()
	report.Duration = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("recompute log returns: %w", err)
	}

	if report.RowsUpserted > 0 && e.invalidator != nil {
		if _, err := e.invalidator.BumpGeneration(ctx); err != nil {
			e.logger.WithError(err).Warn("Failed to invalidate screen cache")
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"mode":          mode.Kind,
		"tickers":       report.Tickers,
		"failed":        len(report.Failed),
		"rows_upserted": report.RowsUpserted,
		"duration":      report.Duration.String(),
	}).Info("Log return recompute completed")

	return report, nil
}

// recomputeTicker loads, computes and upserts one ticker under its lock
func (e *Engine) recomputeTicker(ctx context.Context, ticker string, boundary time.Time) (int64, error) {
	unlock := e.locks.lock(ticker)
	defer unlock()

	series, err := e.prices.SeriesSince(ctx, ticker, boundary)
	if err != nil {
		return 0, fmt.Errorf("load prices: %w", err)
	}

	rows := onOrAfter(Compute(series), boundary)
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := e.returns.UpsertLogReturns(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":       ticker,
		"observations": len(series),
		"returns":      len(rows),
	}).Debug("Recomputed ticker")

	return n, nil
}

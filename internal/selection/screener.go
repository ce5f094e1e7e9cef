package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/s2_fundamentals"
	"github.com/wonny/winners/pkg/logger"
	"github.com/wonny/winners/pkg/redis"
)

// ResultCache stores finished screens per cache generation
type ResultCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Candidate is one instrument with every screening input resolved.
// Missing inputs make an instrument drop out before it becomes a Candidate.
type Candidate = contracts.ScreeningResult

// Screener joins prices, ranks and fundamentals and applies the threshold predicates
// ⭐ SSOT: 스크리닝 로직은 여기서만 (읽기 전용, 쓰기 없음)
type Screener struct {
	instruments  contracts.InstrumentRepository
	prices       contracts.PriceRepository
	fundamentals contracts.FundamentalRepository
	ranker       *Ranker
	ratios       *s2_fundamentals.RatioEngine
	cagr         *s2_fundamentals.CAGRCalculator
	cache        ResultCache
	cacheTTL     time.Duration
	logger       *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(
	instruments contracts.InstrumentRepository,
	prices contracts.PriceRepository,
	fundamentals contracts.FundamentalRepository,
	ranker *Ranker,
	ratios *s2_fundamentals.RatioEngine,
	cagr *s2_fundamentals.CAGRCalculator,
	log *logger.Logger,
) *Screener {
	return &Screener{
		instruments:  instruments,
		prices:       prices,
		fundamentals: fundamentals,
		ranker:       ranker,
		ratios:       ratios,
		cagr:         cagr,
		logger:       log.WithField("module", "selection.screener"),
	}
}

// WithCache enables result caching; ttl <= 0 disables it
func (s *Screener) WithCache(cache ResultCache, ttl time.Duration) *Screener {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// Screen runs one screen. Invalid criteria are rejected before any read.
func (s *Screener) Screen(ctx context.Context, criteria contracts.ScreenCriteria) (*contracts.ScreenReport, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	cacheKey, cached := s.fromCache(ctx, criteria)
	if cached != nil {
		return cached, nil
	}

	candidates, err := s.Candidates(ctx, criteria.LookbackDays)
	if err != nil {
		return nil, err
	}

	results := ApplyFilter(candidates, criteria)
	report := &contracts.ScreenReport{
		Criteria: criteria,
		Results:  results,
		Summary:  Summarize(results),
	}

	s.logger.WithFields(map[string]interface{}{
		"candidates":    len(candidates),
		"passed":        len(results),
		"filtered_out":  len(candidates) - len(results),
		"lookback_days": criteria.LookbackDays,
	}).Info("Screening completed")

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache screen result")
		}
	}

	return report, nil
}

// fromCache returns the cache key for this query and a cached report if one exists.
// The key carries the cache generation and the stored-data fingerprint, so any
// newly loaded price, return, fundamental or instrument row misses.
func (s *Screener) fromCache(ctx context.Context, criteria contracts.ScreenCriteria) (string, *contracts.ScreenReport) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return "", nil
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Screen cache unavailable")
		return "", nil
	}

	fp, err := s.Fingerprint(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Data fingerprint unavailable, skipping screen cache")
		return "", nil
	}

	key := redis.ScreenKey(gen, fp.String(), criteria.CacheKey())
	var report contracts.ScreenReport
	found, err := s.cache.Get(ctx, key, &report)
	if err != nil {
		s.logger.WithError(err).Warn("Screen cache read failed")
		return key, nil
	}
	if !found {
		return key, nil
	}

	s.logger.WithField("key", key).Debug("Screen served from cache")
	return key, &report
}

// Fingerprint reads the state of every table a screen depends on
func (s *Screener) Fingerprint(ctx context.Context) (contracts.DataFingerprint, error) {
	var (
		fp  contracts.DataFingerprint
		err error
	)

	if fp.Prices, err = s.prices.PriceWatermark(ctx); err != nil {
		return fp, err
	}
	if fp.Returns, err = s.ranker.returns.ReturnsWatermark(ctx); err != nil {
		return fp, err
	}
	if fp.Fundamentals, err = s.fundamentals.FundamentalsWatermark(ctx); err != nil {
		return fp, err
	}

	instruments, err := s.instruments.ListInstruments(ctx)
	if err != nil {
		return fp, fmt.Errorf("list instruments: %w", err)
	}
	fp.Instruments = len(instruments)

	return fp, nil
}

// Candidates resolves every screening input per instrument with inner-join
// semantics: an instrument lacking any input is absent.
func (s *Screener) Candidates(ctx context.Context, lookbackDays int) ([]Candidate, error) {
	instruments, err := s.instruments.ListInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	// (a) latest close
	closes, err := s.prices.LatestCloses(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest closes: %w", err)
	}

	// (b) relative strength
	rs, err := s.ranker.Percentiles(ctx, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("rank universe: %w", err)
	}

	// (c) EBIT of the latest quarterly report
	quarterly, err := s.fundamentals.LatestQuarterly(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest quarterly: %w", err)
	}

	// (d) revenue CAGR
	cagrs, err := s.cagr.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenue cagr: %w", err)
	}

	// (e) market cap and P/E of the latest period
	market, err := s.ratios.LatestMarketRatios(ctx)
	if err != nil {
		return nil, fmt.Errorf("market ratios: %w", err)
	}

	missing := make(map[string]int)
	candidates := make([]Candidate, 0, len(instruments))
	for _, inst := range instruments {
		last, ok := closes[inst.Ticker]
		if !ok || !last.Close.Valid {
			missing["price"]++
			continue
		}
		pct, ok := rs[inst.Ticker]
		if !ok {
			missing["rs_percentile"]++
			continue
		}
		q, ok := quarterly[inst.Ticker]
		if !ok || !q.EBIT.Valid {
			missing["ebit"]++
			continue
		}
		cagr, ok := cagrs[inst.Ticker]
		if !ok {
			missing["revenue_cagr"]++
			continue
		}
		m, ok := market[inst.Ticker]
		if !ok || !m.MarketCap.Valid {
			missing["market_cap"]++
			continue
		}

		candidates = append(candidates, Candidate{
			Ticker:        inst.Ticker,
			CompanyName:   inst.Name,
			Sector:        inst.Sector,
			Industry:      inst.Industry,
			Exchange:      inst.Exchange,
			CurrentPrice:  last.Close.Float64,
			MarketCap:     m.MarketCap.Float64,
			RSPercentile:  pct,
			EBIT:          q.EBIT.Float64,
			RevenueCAGR3Y: cagr,
			PERatio:       m.PE,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"candidates":  len(candidates),
		"missing":     missing,
	}).Debug("Resolved screening inputs")

	return candidates, nil
}

// ApplyFilter keeps candidates that pass all five predicates and orders them
// by RS percentile desc, market cap desc, ticker asc.
func ApplyFilter(candidates []Candidate, c contracts.ScreenCriteria) []contracts.ScreeningResult {
	results := make([]contracts.ScreeningResult, 0)
	for _, cand := range candidates {
		if cand.CurrentPrice >= c.MinPrice &&
			cand.MarketCap >= c.MinMarketCap &&
			cand.RSPercentile >= c.MinRSPercentile &&
			cand.EBIT >= c.MinEBIT &&
			cand.RevenueCAGR3Y >= c.MinRevenueCAGR {
			results = append(results, cand)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RSPercentile != b.RSPercentile {
			return a.RSPercentile > b.RSPercentile
		}
		if a.MarketCap != b.MarketCap {
			return a.MarketCap > b.MarketCap
		}
		return a.Ticker < b.Ticker
	})
	return results
}

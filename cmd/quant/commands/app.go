package commands

import (
	"fmt"

	"github.com/wonny/winners/internal/s0_data"
	"github.com/wonny/winners/internal/s0_data/quality"
	"github.com/wonny/winners/internal/s1_returns"
	"github.com/wonny/winners/internal/s2_fundamentals"
	"github.com/wonny/winners/internal/screenprofile"
	"github.com/wonny/winners/internal/selection"
	"github.com/wonny/winners/pkg/config"
	"github.com/wonny/winners/pkg/database"
	"github.com/wonny/winners/pkg/logger"
	"github.com/wonny/winners/pkg/redis"
)

// app is the fully wired pipeline shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	profile *screenprofile.Profile

	instruments  *s0_data.InstrumentRepository
	prices       *s0_data.PriceRepository
	returns      *s0_data.LogReturnRepository
	fundamentals *s0_data.FundamentalRepository

	engine   *s1_returns.Engine
	ranker   *selection.Ranker
	ratios   *s2_fundamentals.RatioEngine
	cagr     *s2_fundamentals.CAGRCalculator
	screener *selection.Screener
	gate     *quality.Gate
}

// newApp loads config, connects to PostgreSQL (and Redis when enabled)
// and builds every stage of the pipeline
func newApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if profilePath != "" {
		cfg.Engine.ProfilePath = profilePath
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load screen profile
	profile, err := screenprofile.LoadOrDefault(cfg.Engine.ProfilePath, log)
	if err != nil {
		return nil, fmt.Errorf("load screen profile: %w", err)
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Connect to Redis (disabled client = no-op cache)
	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := rc.ScreenCache()

	// 6. Repositories
	a := &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        rc,
		profile:      profile,
		instruments:  s0_data.NewInstrumentRepository(db.Pool),
		prices:       s0_data.NewPriceRepository(db.Pool),
		returns:      s0_data.NewLogReturnRepository(db.Pool),
		fundamentals: s0_data.NewFundamentalRepository(db.Pool),
	}

	// 7. Pipeline stages
	a.engine = s1_returns.NewEngine(a.prices, a.returns, cfg.Engine.Workers, log).WithInvalidator(cache)
	a.ranker = selection.NewRanker(a.returns, profile.Ranking.MinCoverage, log)
	a.ratios = s2_fundamentals.NewRatioEngine(a.fundamentals, s2_fundamentals.NewJoiner(a.prices), log)
	a.cagr = s2_fundamentals.NewCAGRCalculator(a.fundamentals)
	a.screener = selection.NewScreener(a.instruments, a.prices, a.fundamentals, a.ranker, a.ratios, a.cagr, log).
		WithCache(cache, cfg.Engine.ScreenCacheTTL)

	gateCfg := quality.DefaultConfig()
	gateCfg.LookbackDays = profile.Screen.LookbackDays
	gateCfg.MinCoverage = profile.Ranking.MinCoverage
	a.gate = quality.NewGate(a.instruments, a.prices, a.returns, a.fundamentals, gateCfg, log)

	log.WithFields(map[string]interface{}{
		"env":     cfg.Env,
		"profile": profile.Meta.ProfileID,
		"workers": cfg.Engine.Workers,
		"redis":   rc.Enabled(),
	}).Debug("Pipeline initialized")

	return a, nil
}

// Close releases the database pool and Redis connection
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

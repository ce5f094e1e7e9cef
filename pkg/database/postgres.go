package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/pkg/config"
)

// PipelineTables are provisioned externally and read or written by the pipeline
var PipelineTables = []string{"stocks", "symbols", "ohlcv", "fundamentals", "daily_log_returns"}

const connectTimeout = 5 * time.Second

// DB wraps the pgxpool.Pool shared by every repository
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// buildPoolConfig applies the pool limits; the pool always fits every engine worker
func buildPoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	// 재계산 워커가 한꺼번에 붙어도 연결 대기에서 멈추지 않도록
	if int(poolConfig.MaxConns) < cfg.Engine.Workers+2 {
		poolConfig.MaxConns = int32(cfg.Engine.Workers + 2)
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "winners"

	return poolConfig, nil
}

// New creates the pool and verifies it with a ping.
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// MissingTables returns the pipeline tables that do not exist
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT t FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL ORDER BY t`,
		PipelineTables)
	if err != nil {
		return nil, fmt.Errorf("check pipeline tables: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		missing = append(missing, t)
	}
	return missing, rows.Err()
}

// HealthCheck pings the database and checks that every pipeline table exists.
// /health 와 test-db 커맨드에서 사용
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Stats = db.Stats()

	missing, err := db.MissingTables(ctx)
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.MissingTables = missing
	if len(missing) > 0 {
		status.Error = "missing tables: " + strings.Join(missing, ", ")
		return status, nil
	}

	status.Healthy = true
	return status, nil
}

// HealthStatus is the database section of /health
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Timestamp     time.Time     `json:"timestamp"`
	ResponseTime  time.Duration `json:"response_time"`
	MissingTables []string      `json:"missing_tables,omitempty"`
	Error         string        `json:"error,omitempty"`
	Stats         PoolStats     `json:"stats"`
}

// PoolStats is the subset of pgxpool statistics worth watching
type PoolStats struct {
	MaxConns          int32         `json:"max_conns"`
	TotalConns        int32         `json:"total_conns"`
	AcquiredConns     int32         `json:"acquired_conns"`
	IdleConns         int32         `json:"idle_conns"`
	ConstructingConns int32         `json:"constructing_conns"`
	AcquireCount      int64         `json:"acquire_count"`
	EmptyAcquireCount int64         `json:"empty_acquire_count"` // 대기 후 획득, 많으면 풀이 작음
	AcquireDuration   time.Duration `json:"acquire_duration"`
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	s := db.Pool.Stat()
	return PoolStats{
		MaxConns:          s.MaxConns(),
		TotalConns:        s.TotalConns(),
		AcquiredConns:     s.AcquiredConns(),
		IdleConns:         s.IdleConns(),
		ConstructingConns: s.ConstructingConns(),
		AcquireCount:      s.AcquireCount(),
		EmptyAcquireCount: s.EmptyAcquireCount(),
		AcquireDuration:   s.AcquireDuration(),
	}
}

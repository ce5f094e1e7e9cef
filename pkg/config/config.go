package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Engine
	Engine EngineConfig

	// API
	API APIConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string // 키 네임스페이스 (여러 환경이 같은 Redis 를 쓸 때)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// EngineConfig controls the return, ranking and screening pipeline
type EngineConfig struct {
	Workers           int           // 종목별 병렬 처리 수
	ReturnsWindowDays int           // incremental 재계산 기간 (calendar days)
	ScreenCacheTTL    time.Duration // 0이면 캐시 안 함
	ProfilePath       string        // screening profile YAML
}

// APIConfig holds HTTP server limits
type APIConfig struct {
	RateLimit       float64 // heavy endpoints, requests per second
	RateBurst       int
	WriteTimeout    time.Duration // 동기 full rebuild 를 감당해야 함
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_KEY_PREFIX", "winners"),
		},

		// Engine
		Engine: EngineConfig{
			Workers:           getEnvAsInt("ENGINE_WORKERS", 8),
			ReturnsWindowDays: getEnvAsInt("RETURNS_WINDOW_DAYS", 10),
			ScreenCacheTTL:    getEnvAsDuration("SCREEN_CACHE_TTL", "10m"),
			ProfilePath:       getEnv("SCREEN_PROFILE", "config/screener/winners.yaml"),
		},

		// API
		API: APIConfig{
			RateLimit:       getEnvAsFloat("API_RATE_LIMIT", 5),
			RateBurst:       getEnvAsInt("API_RATE_BURST", 10),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", "5m"),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", "30s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.Workers < 1 {
		return fmt.Errorf("ENGINE_WORKERS must be >= 1")
	}

	if c.Engine.ReturnsWindowDays < 1 {
		return fmt.Errorf("RETURNS_WINDOW_DAYS must be >= 1")
	}

	if c.API.RateLimit <= 0 || c.API.RateBurst < 1 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Prefix) == "" {
		return fmt.Errorf("REDIS_KEY_PREFIX is required when REDIS_ENABLED")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/winners/pkg/database"
	"github.com/wonny/winners/pkg/logger"
	"github.com/wonny/winners/pkg/redis"
)

const healthTimeout = 3 * time.Second

// DatabaseChecker reports Postgres health
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// CacheChecker reports screen cache health
type CacheChecker interface {
	Health(ctx context.Context) redis.CacheHealth
}

// HealthHandler serves /health. Either checker may be nil.
type HealthHandler struct {
	db     DatabaseChecker
	cache  CacheChecker
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db DatabaseChecker, cache CacheChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: log.WithField("module", "api.health"),
	}
}

type healthResponse struct {
	Status   string                 `json:"status"` // ok, degraded, down
	Service  string                 `json:"service"`
	Database *database.HealthStatus `json:"database,omitempty"`
	Cache    *redis.CacheHealth     `json:"screen_cache,omitempty"`
}

// Health reports database and screen cache health.
// A broken database is 503; a broken cache only degrades since screens still run uncached.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Service: "winners-api"}
	code := http.StatusOK

	if h.db != nil {
		status, err := h.db.HealthCheck(ctx)
		resp.Database = status
		if err != nil || status == nil || !status.Healthy {
			h.logger.WithError(err).Warn("Database unhealthy")
			resp.Status = "down"
			code = http.StatusServiceUnavailable
		}
	}

	if h.cache != nil {
		ch := h.cache.Health(ctx)
		resp.Cache = &ch
		if !ch.Healthy && resp.Status == "ok" {
			h.logger.WithField("error", ch.Error).Warn("Screen cache unhealthy")
			resp.Status = "degraded"
		}
	}

	respondJSON(w, code, resp)
}

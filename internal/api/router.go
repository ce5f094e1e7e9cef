package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/winners/internal/api/handlers"
	"github.com/wonny/winners/pkg/logger"
)

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler // nil: liveness only
	Screen       *handlers.ScreenHandler
	Returns      *handlers.ReturnsHandler
	Fundamentals *handlers.FundamentalsHandler
	Data         *handlers.DataHandler
}

// NewRouter creates and configures the HTTP router.
// limiter throttles the endpoints that scan the whole universe; nil disables it.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter *rate.Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	health := h.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil, nil, log)
	}
	r.HandleFunc("/health", health.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Per-instrument reads (cheap)
	api.HandleFunc("/instruments/{ticker}/ratios", h.Fundamentals.Ratios).Methods("GET")
	api.HandleFunc("/instruments/{ticker}/cagr", h.Fundamentals.CAGR).Methods("GET")

	// Universe-wide endpoints (rate limited)
	heavy := api.NewRoute().Subrouter()
	heavy.HandleFunc("/screen", h.Screen.Screen).Methods("GET")
	heavy.HandleFunc("/screen/export.csv", h.Screen.ExportCSV).Methods("GET")
	heavy.HandleFunc("/rankings", h.Returns.Rankings).Methods("GET")
	heavy.HandleFunc("/returns/recompute", h.Returns.Recompute).Methods("POST")
	heavy.HandleFunc("/data/coverage", h.Data.GetCoverage).Methods("GET")
	if limiter != nil {
		heavy.Use(rateLimitMiddleware(limiter, log))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

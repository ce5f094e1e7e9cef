package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/s1_returns"
	"github.com/wonny/winners/internal/selection"
	"github.com/wonny/winners/pkg/logger"
)

// ReturnsHandler handles log return maintenance and relative strength reads
type ReturnsHandler struct {
	engine          *s1_returns.Engine
	ranker          *selection.Ranker
	defaultWindow   int
	defaultLookback int
	logger          *logger.Logger
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(engine *s1_returns.Engine, ranker *selection.Ranker, defaultWindow, defaultLookback int, log *logger.Logger) *ReturnsHandler {
	return &ReturnsHandler{
		engine:          engine,
		ranker:          ranker,
		defaultWindow:   defaultWindow,
		defaultLookback: defaultLookback,
		logger:          log.WithField("module", "api.returns"),
	}
}

// Recompute rebuilds stored log returns
// POST /api/returns/recompute {"mode":"full"|"incremental","window_days":N}
func (h *ReturnsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var mode contracts.RecomputeMode
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mode); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// window_days 생략 시 설정값 사용
	if mode.Kind == contracts.RecomputeIncremental && mode.WindowDays == 0 {
		mode.WindowDays = h.defaultWindow
	}

	h.logger.WithFields(map[string]interface{}{
		"mode":        mode.Kind,
		"window_days": mode.WindowDays,
	}).Info("Log return recompute triggered")

	report, err := h.engine.Recompute(r.Context(), mode)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to recompute log returns")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Rankings returns the relative strength ranking
// GET /api/rankings?lookback_days=252&limit=100
func (h *ReturnsHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	lookback := h.defaultLookback
	if s := r.URL.Query().Get("lookback_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "lookback_days: must be an integer")
			return
		}
		lookback = n
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	rankings, err := h.ranker.RankUniverse(r.Context(), lookback)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to rank universe")
		return
	}

	total := len(rankings)
	if limit > 0 && limit < total {
		rankings = rankings[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lookback_days": lookback,
		"total":         total,
		"rankings":      rankings,
	})
}

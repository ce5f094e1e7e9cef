package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/selection"
	"github.com/wonny/winners/pkg/logger"
)

// ScreenHandler serves the winners screen
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener *selection.Screener
	defaults contracts.ScreenCriteria
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler; defaults fill absent query parameters
func NewScreenHandler(screener *selection.Screener, defaults contracts.ScreenCriteria, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		screener: screener,
		defaults: defaults,
		logger:   log.WithField("module", "api.screen"),
	}
}

// Screen runs a screen with query thresholds
// GET /api/screen?min_price=&min_market_cap=&lookback_days=|lookback_months=&min_ebit=&min_revenue_cagr=&min_rs_percentile=
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	report, ok := h.run(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ExportCSV runs the same screen and streams it as CSV
// GET /api/screen/export.csv
func (h *ScreenHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.run(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("winners_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := selection.WriteCSV(w, report.Results); err != nil {
		h.logger.WithError(err).Warn("CSV export interrupted")
	}
}

func (h *ScreenHandler) run(w http.ResponseWriter, r *http.Request) (*contracts.ScreenReport, bool) {
	criteria, err := selection.ParseCriteria(r.URL.Query().Get, h.defaults)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report, err := h.screener.Screen(r.Context(), criteria)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to run screen")
		return nil, false
	}
	return report, true
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/s2_fundamentals"
	"github.com/wonny/winners/pkg/logger"
)

// FundamentalsHandler serves per-instrument derived ratios and growth
type FundamentalsHandler struct {
	fundamentals contracts.FundamentalRepository
	ratios       *s2_fundamentals.RatioEngine
	cagr         *s2_fundamentals.CAGRCalculator
	logger       *logger.Logger
}

// NewFundamentalsHandler creates a new fundamentals handler
func NewFundamentalsHandler(
	fundamentals contracts.FundamentalRepository,
	ratios *s2_fundamentals.RatioEngine,
	cagr *s2_fundamentals.CAGRCalculator,
	log *logger.Logger,
) *FundamentalsHandler {
	return &FundamentalsHandler{
		fundamentals: fundamentals,
		ratios:       ratios,
		cagr:         cagr,
		logger:       log.WithField("module", "api.fundamentals"),
	}
}

// Ratios returns derived ratios for one report.
// Without period the newest report (optionally of the given type) is used.
// GET /api/instruments/{ticker}/ratios?period=YYYY-MM-DD&type=annual|quarterly
func (h *FundamentalsHandler) Ratios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	var reportType contracts.ReportType
	if s := r.URL.Query().Get("type"); s != "" {
		rt, err := contracts.ParseReportType(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		reportType = rt
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		report, err := h.newest(r, ticker, reportType)
		if err != nil {
			respondFailure(w, h.logger, err, "Failed to load reports")
			return
		}
		ratios, err := h.ratios.RatiosFor(ctx, ticker, report.PeriodEndDate, report.ReportType)
		if err != nil {
			respondFailure(w, h.logger, err, "Failed to compute ratios")
			return
		}
		respondJSON(w, http.StatusOK, ratios)
		return
	}

	periodEnd, err := contracts.ParseDate(period)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reportType == "" {
		reportType = contracts.ReportAnnual
	}

	ratios, err := h.ratios.RatiosFor(ctx, ticker, periodEnd, reportType)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to compute ratios")
		return
	}
	respondJSON(w, http.StatusOK, ratios)
}

func (h *FundamentalsHandler) newest(r *http.Request, ticker string, reportType contracts.ReportType) (*contracts.FundamentalReport, error) {
	reports, err := h.fundamentals.ListReports(r.Context(), ticker)
	if err != nil {
		return nil, err
	}
	// ListReports: 최신 기간 우선
	for i := range reports {
		if reportType == "" || reports[i].ReportType == reportType {
			return &reports[i], nil
		}
	}
	return nil, contracts.ErrNotFound
}

// CAGR returns the three-year revenue CAGR; null when undefined
// GET /api/instruments/{ticker}/cagr
func (h *FundamentalsHandler) CAGR(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	cagr, err := h.cagr.RevenueCAGR3Y(r.Context(), ticker)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to compute revenue CAGR")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":          ticker,
		"revenue_cagr_3y": cagr,
	})
}

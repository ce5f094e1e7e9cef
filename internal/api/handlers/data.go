package handlers

import (
	"net/http"

	"github.com/wonny/winners/internal/s0_data/quality"
	"github.com/wonny/winners/pkg/logger"
)

// DataHandler handles data-related API endpoints
type DataHandler struct {
	qualityGate *quality.Gate
	logger      *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(qualityGate *quality.Gate, log *logger.Logger) *DataHandler {
	return &DataHandler{
		qualityGate: qualityGate,
		logger:      log.WithField("module", "api.data"),
	}
}

// GetCoverage returns a fresh coverage snapshot
// GET /api/data/coverage
func (h *DataHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.qualityGate.Check(r.Context())
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to check data coverage")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFailure maps pipeline errors onto HTTP status codes.
// Caller input errors are echoed, storage errors are logged and hidden.
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error, message string) {
	switch {
	case contracts.IsInvalidParameter(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, message+": not found")
	default:
		log.WithError(err).Error(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}

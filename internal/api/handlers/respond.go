package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/enrichment"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps domain errors onto HTTP status codes
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	var parseErr *enrichment.ParseError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, enrichment.ErrEmptyTitle):
		status = http.StatusBadRequest
	case errors.Is(err, collection.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, collection.ErrNotAttached), errors.Is(err, collection.ErrNotSynced):
		status = http.StatusServiceUnavailable
	case errors.As(err, &parseErr):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, logger, status, errorResponse{Error: err.Error()})
}

package handlers

import (
	"net/http"

	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/view"
	"github.com/sirupsen/logrus"
)

// StatusSource exposes the mirrored collection
type StatusSource interface {
	Attached() bool
	UserID() string
	Records() []models.Record
}

// StatusHandler handles status requests
type StatusHandler struct {
	source StatusSource
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(source StatusSource, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		source: source,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Attached bool       `json:"attached"`
	UserID   string     `json:"user_id,omitempty"`
	Stats    view.Stats `json:"stats"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, StatusResponse{
		Attached: h.source.Attached(),
		UserID:   h.source.UserID(),
		Stats:    view.Summarize(h.source.Records()),
	})
}

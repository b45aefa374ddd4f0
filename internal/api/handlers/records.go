package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/enrichment"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/remote"
	"github.com/amaumene/cinearchive/internal/view"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RecordStore is the collection store as seen by the HTTP boundary
type RecordStore interface {
	Attached() bool
	Records() []models.Record
	SetProgress(ctx context.Context, id, season, episode string) (models.Record, error)
	ToggleFavorite(ctx context.Context, id string) (models.Record, error)
	RemoveRecord(ctx context.Context, id string) error
}

// Enricher creates records from a free-text title
type Enricher interface {
	Enrich(ctx context.Context, title string) (*enrichment.Result, error)
}

// RecordsHandler serves the collection and its mutations
type RecordsHandler struct {
	store    RecordStore
	enricher Enricher
	logger   *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(store RecordStore, enricher Enricher, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{
		store:    store,
		enricher: enricher,
		logger:   logger,
	}
}

// pendingResponse is returned when the local change was applied but the
// remote write failed
type pendingResponse struct {
	Record *models.Record `json:"record,omitempty"`
	ID     string         `json:"id,omitempty"`
	Error  string         `json:"error"`
}

type createRequest struct {
	Title string `json:"title"`
}

type progressRequest struct {
	Season  json.RawMessage `json:"season"`
	Episode json.RawMessage `json:"episode"`
}

// List returns one derived page of the collection
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.store.Attached() {
		writeError(w, h.logger, collection.ErrNotAttached)
		return
	}

	query := r.URL.Query()
	state := view.DefaultState()
	state.Type = view.ParseTypeFilter(query.Get("type"))
	state.Status = view.ParseStatusFilter(query.Get("status"))
	state.SearchText = query.Get("q")
	state.Sort = view.ParseSortKey(query.Get("sort"))
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		state.PageIndex = page
	}

	writeJSON(w, h.logger, http.StatusOK, view.Derive(h.store.Records(), state))
}

// Create enriches a title and adds the resulting record
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Debug("Failed to decode create request")
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.enricher.Enrich(r.Context(), req.Title)
	if err != nil {
		var parseErr *enrichment.ParseError
		if errors.Is(err, enrichment.ErrEmptyTitle) || errors.Is(err, collection.ErrNotAttached) ||
			errors.Is(err, collection.ErrNotSynced) || errors.As(err, &parseErr) {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, result)
}

// Progress sets the current season and episode of a series
func (h *RecordsHandler) Progress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	record, err := h.store.SetProgress(r.Context(), mux.Vars(r)["id"], rawText(req.Season), rawText(req.Episode))
	h.writeMutation(w, record, err)
}

// Favorite toggles the favorite flag of a record
func (h *RecordsHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.ToggleFavorite(r.Context(), mux.Vars(r)["id"])
	h.writeMutation(w, record, err)
}

// Delete removes a record
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.store.RemoveRecord(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case remote.IsWriteError(err):
		writeJSON(w, h.logger, http.StatusAccepted, pendingResponse{ID: id, Error: err.Error()})
	default:
		writeError(w, h.logger, err)
	}
}

func (h *RecordsHandler) writeMutation(w http.ResponseWriter, record models.Record, err error) {
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, record)
	case remote.IsWriteError(err):
		writeJSON(w, h.logger, http.StatusAccepted, pendingResponse{Record: &record, Error: err.Error()})
	default:
		writeError(w, h.logger, err)
	}
}

// rawText turns a JSON string or number into the text the store coerces
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

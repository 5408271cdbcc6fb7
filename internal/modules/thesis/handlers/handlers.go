// Package handlers provides HTTP handlers for theses.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/thesis"
)

// Handler handles thesis HTTP requests
type Handler struct {
	repo    *thesis.Repository
	service *thesis.Service
	log     zerolog.Logger
}

// NewHandler creates a new thesis handler
func NewHandler(repo *thesis.Repository, service *thesis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
		log:     log.With().Str("handler", "thesis").Logger(),
	}
}

type upsertRequest struct {
	Hypothesis string                    `json:"hypothesis"`
	Rules      []domain.InvalidationRule `json:"rules"`
}

// HandleUpsert creates or replaces a symbol's thesis, bumping the version.
// PUT /api/thesis/{symbol}
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, rule := range req.Rules {
		if strings.TrimSpace(rule.Name) == "" || strings.TrimSpace(rule.Feature) == "" {
			h.writeError(w, http.StatusBadRequest, "each rule needs a name and a feature")
			return
		}
	}

	t, err := h.repo.Upsert(symbol, req.Hypothesis, req.Rules)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, t)
}

// HandleGet returns the live thesis for a symbol.
// GET /api/thesis/{symbol}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	t, err := h.repo.Get(symbol)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query thesis")
		h.writeError(w, http.StatusInternalServerError, "failed to query thesis")
		return
	}
	if t == nil {
		h.writeError(w, http.StatusNotFound, "no thesis for symbol")
		return
	}

	h.writeJSON(w, http.StatusOK, t)
}

// HandleHistory returns archived versions for a symbol, newest first.
// GET /api/thesis/{symbol}/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	history, err := h.repo.History(symbol)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query thesis history")
		h.writeError(w, http.StatusInternalServerError, "failed to query thesis history")
		return
	}
	if history == nil {
		history = []domain.Thesis{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   strings.ToUpper(strings.TrimSpace(symbol)),
		"versions": history,
	})
}

// HandleDecide evaluates the symbol's thesis and returns the resulting
// decision. A feature snapshot in the request body is evaluated as supplied,
// letting clients test hypothetical features against the stored rules; with
// an empty body the latest stored snapshot is used.
// POST /api/thesis/{symbol}/decide
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var snap *domain.FeatureSnapshot
	if r.Body != nil {
		var supplied domain.FeatureSnapshot
		err := json.NewDecoder(r.Body).Decode(&supplied)
		switch {
		case err == io.EOF:
			// No body, decide on the stored snapshot.
		case err != nil:
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		default:
			snap = &supplied
		}
	}

	eval, err := h.service.Evaluate(symbol, snap)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, eval)
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: message}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

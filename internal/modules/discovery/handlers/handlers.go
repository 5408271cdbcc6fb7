// Package handlers provides HTTP handlers for the discovery pipeline.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/discovery"
)

// Handler handles discovery HTTP requests
type Handler struct {
	capture *discovery.CaptureService
	repo    *discovery.Repository
	log     zerolog.Logger
}

// NewHandler creates a new discovery handler
func NewHandler(capture *discovery.CaptureService, repo *discovery.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		capture: capture,
		repo:    repo,
		log:     log.With().Str("handler", "discovery").Logger(),
	}
}

// HandleGetTop returns the ranked, deduplicated recent discoveries.
// GET /api/discoveries/top?limit=N&minScore=S
// Served from the batch cache while its TTL holds.
func (h *Handler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	minScore := queryFloat(r, "minScore", 0)

	if batch, ok := h.capture.CachedBatch(); ok {
		filtered := make([]domain.Discovery, 0, len(batch))
		for _, d := range batch {
			if d.Score >= minScore {
				filtered = append(filtered, d)
			}
			if len(filtered) == limit {
				break
			}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"discoveries": filtered,
			"cached":      true,
		})
		return
	}

	discoveries, err := h.repo.QueryRecent(limit, minScore)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query discoveries")
		h.writeError(w, http.StatusInternalServerError, "failed to query discoveries")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"discoveries": discoveries,
		"cached":      false,
	})
}

// HandleScan triggers one capture run synchronously and returns the batch.
// POST /api/discoveries/scan
// Returns 409 when a run is already in progress.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	result, err := h.capture.TriggerRun(r.Context())
	if err != nil {
		if errors.Is(err, discovery.ErrAlreadyRunning) {
			h.writeError(w, http.StatusConflict, "scan already running, try again later")
			return
		}
		h.log.Error().Err(err).Msg("Capture run failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetByAction returns recent discoveries carrying the given action.
// GET /api/discoveries/actions/{action}
func (h *Handler) HandleGetByAction(w http.ResponseWriter, r *http.Request) {
	action := domain.Action(strings.ToUpper(chi.URLParam(r, "action")))
	if !domain.ValidAction(action) {
		h.writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	discoveries, err := h.repo.QueryByAction(action)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query discoveries by action")
		h.writeError(w, http.StatusInternalServerError, "failed to query discoveries")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"action":      action,
		"discoveries": discoveries,
	})
}

// envelope is the consistent API response shape.
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

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

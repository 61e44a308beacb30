// Package handlers provides HTTP handlers for prediction history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/modules/history"
)

const defaultLimit = 50

// Handler handles history HTTP requests
type Handler struct {
	repo *history.Repository
	log  zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetHistory handles GET /api/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.repo.GetRecent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load prediction history")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load prediction history",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Package handlers provides HTTP handlers for recommendation operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/recommendations"
)

const defaultLimit = 10

// Handler handles recommendation HTTP requests
type Handler struct {
	service *recommendations.Service
	log     zerolog.Logger
}

// NewHandler creates a new recommendations handler
func NewHandler(service *recommendations.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "recommendations").Logger(),
	}
}

// HandleGetRecommendations handles GET /api/recommendations
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	riskTolerance := domain.ParseRiskLevel(r.URL.Query().Get("risk_tolerance"))

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

	recs, err := h.service.Generate(riskTolerance, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to generate recommendations")
		h.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
		"risk_tolerance":  riskTolerance,
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

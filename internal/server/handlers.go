package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/pkg/embedded"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "cryptoadvisor",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleCoinHistory handles GET /api/coins/{id}/history
func (s *Server) handleCoinHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "days must be a positive integer",
			})
			return
		}
		days = parsed
	}

	points, err := s.gateway.FetchPriceHistory(id, days)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "criptomoneda no encontrada: " + id,
			})
			return
		}
		s.log.Error().Err(err).Str("coin", id).Msg("Failed to fetch price history")
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crypto_id": id,
		"days":      days,
		"prices":    points,
	})
}

// handleDashboard serves the dashboard HTML from the embedded filesystem
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(embedded.Files, "frontend/index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

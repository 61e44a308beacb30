// Package handlers provides HTTP handlers for portfolio operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/portfolio"
)

const defaultBudget = 1000.0

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type portfolioRequest struct {
	Budget        *float64 `json:"budget"`
	RiskTolerance string   `json:"risk_tolerance"`
}

// HandleBuildPortfolio handles POST /api/portfolio
func (h *Handler) HandleBuildPortfolio(w http.ResponseWriter, r *http.Request) {
	// Missing fields fall back to a 1000 budget and MEDIO tolerance.
	var req portfolioRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	budget := defaultBudget
	if req.Budget != nil {
		budget = *req.Budget
	}
	if budget <= 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "budget must be positive",
		})
		return
	}

	riskTolerance := domain.ParseRiskLevel(req.RiskTolerance)

	lines, err := h.service.Build(budget, riskTolerance)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio")
		h.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}

	totalInvestment := 0.0
	for _, line := range lines {
		totalInvestment += line.SuggestedInvestment
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":        lines,
		"total_budget":     budget,
		"total_investment": totalInvestment,
		"remaining_cash":   budget - totalInvestment,
		"asset_count":      len(lines),
		"risk_tolerance":   riskTolerance,
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

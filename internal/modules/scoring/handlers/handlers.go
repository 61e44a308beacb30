// Package handlers provides HTTP handlers for prediction operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/scoring"
)

// Recorder persists served predictions. A nil recorder disables history.
type Recorder interface {
	Record(symbol, coinID string, prediction float64, category domain.Category) error
}

// Handler handles prediction HTTP requests
type Handler struct {
	service  *scoring.Service
	recorder Recorder
	log      zerolog.Logger
}

// NewHandler creates a new scoring handler
func NewHandler(service *scoring.Service, recorder Recorder, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		recorder: recorder,
		log:      log.With().Str("handler", "scoring").Logger(),
	}
}

type predictRequest struct {
	Symbol string `json:"symbol"`
}

// HandlePredict handles POST /api/predict-crypto
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	// A missing or malformed body is treated as an empty symbol.
	var req predictRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": `Debes enviar {"symbol":"bitcoin"}`,
		})
		return
	}

	prediction, err := h.service.PredictByIdentifier(symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "criptomoneda no encontrada: " + symbol,
			})
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Prediction failed")
		h.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.recorder != nil {
		if err := h.recorder.Record(prediction.Symbol, prediction.CryptoID, prediction.Prediction, prediction.Category); err != nil {
			h.log.Warn().Err(err).Str("symbol", prediction.Symbol).Msg("Failed to record prediction")
		}
	}

	h.writeJSON(w, http.StatusOK, prediction)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

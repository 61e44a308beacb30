package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all prediction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/predict-crypto", h.HandlePredict)
}

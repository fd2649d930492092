package chatbot

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chatbot routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/stats", h.GetStats)
	r.Get("/config", h.GetConfig)
	r.Post("/query", h.Query)
}

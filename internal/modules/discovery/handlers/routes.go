package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all discovery routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/discoveries", func(r chi.Router) {
		r.Get("/top", h.HandleGetTop)
		r.Post("/scan", h.HandleScan)
		r.Get("/actions/{action}", h.HandleGetByAction)
	})
}

package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers thesis routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/thesis", func(r chi.Router) {
		r.Put("/{symbol}", h.HandleUpsert)
		r.Get("/{symbol}", h.HandleGet)
		r.Get("/{symbol}/history", h.HandleHistory)
		r.Post("/{symbol}/decide", h.HandleDecide)
	})
}

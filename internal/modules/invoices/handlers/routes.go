package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the invoice lifecycle routes on a router mounted
// at /invoices.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleEdit)
	r.Post("/{id}/send", h.HandleSend)
	r.Post("/{id}/view", h.HandleView)
	r.Post("/{id}/cancel", h.HandleCancel)
}

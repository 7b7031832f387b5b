package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all amortization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/amortization", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
		r.Post("/schedule.csv", h.HandleScheduleCSV)
		r.Post("/schedule.xlsx", h.HandleScheduleXLSX)
	})
}

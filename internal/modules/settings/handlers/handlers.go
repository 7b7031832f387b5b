// Package handlers provides HTTP handlers for settings management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service      *settings.Service
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		eventManager: eventManager,
		log:          log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": all}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode settings response")
	}
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Set(r.Context(), key, update.Value); err != nil {
		switch {
		case errors.Is(err, settings.ErrUnknownSetting):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, settings.ErrInvalidValue):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Error().
				Err(err).
				Str("key", key).
				Interface("value", update.Value).
				Msg("Failed to update setting")
			http.Error(w, "Failed to update setting", http.StatusInternalServerError)
		}
		return
	}

	if h.eventManager != nil {
		h.eventManager.Emit("settings", &events.SettingsChangedData{Key: key, Value: update.Value})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{key: update.Value}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode settings response")
	}
}

// RegisterRoutes registers all settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", h.HandleUpdate)
	})
}

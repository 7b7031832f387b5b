// Package handlers provides HTTP handlers for loan calculations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/dealerledger/internal/modules/amortization"
	"github.com/aristath/dealerledger/internal/validation"
	"github.com/rs/zerolog"
)

// Calculator computes schedules for validated parameters.
type Calculator interface {
	Calculate(ctx context.Context, p amortization.LoanParameters) (amortization.Result, error)
}

// Handler handles amortization HTTP requests
type Handler struct {
	calculator Calculator
	log        zerolog.Logger
}

// NewHandler creates a new amortization handler
func NewHandler(calculator Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		log:        log.With().Str("handler", "amortization").Logger(),
	}
}

// HandleCalculate handles POST /api/amortization/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"periods":   len(result.Schedule),
		},
	})
}

// HandleScheduleCSV handles POST /api/amortization/schedule.csv
func (h *Handler) HandleScheduleCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
	if err := amortization.WriteScheduleCSV(w, result.Schedule); err != nil {
		h.log.Error().Err(err).Msg("Failed to write schedule CSV")
	}
}

// HandleScheduleXLSX handles POST /api/amortization/schedule.xlsx
func (h *Handler) HandleScheduleXLSX(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.xlsx"`)
	if err := amortization.WriteScheduleXLSX(w, result); err != nil {
		h.log.Error().Err(err).Msg("Failed to write schedule workbook")
	}
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (amortization.Result, bool) {
	var params amortization.LoanParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return amortization.Result{}, false
	}

	result, err := h.calculator.Calculate(r.Context(), params)
	if err != nil {
		if errors.Is(err, amortization.ErrInvalidLoanParameters) {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  err.Error(),
				"fields": validation.Errors(err),
			})
			return amortization.Result{}, false
		}
		h.log.Error().Err(err).Msg("Failed to calculate schedule")
		http.Error(w, "Failed to calculate schedule", http.StatusInternalServerError)
		return amortization.Result{}, false
	}

	return result, true
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

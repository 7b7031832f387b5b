// Package handlers provides HTTP handlers for invoice lifecycle operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/aristath/dealerledger/internal/utils"
	"github.com/aristath/dealerledger/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BalanceReader derives an invoice's balance.
type BalanceReader interface {
	GetBalance(ctx context.Context, invoiceID string) (ledger.Balance, error)
}

// Handler handles invoice HTTP requests
type Handler struct {
	service  *invoices.Service
	balances BalanceReader
	log      zerolog.Logger
}

// NewHandler creates a new invoice handler
func NewHandler(service *invoices.Service, balances BalanceReader, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		balances: balances,
		log:      log.With().Str("handler", "invoices").Logger(),
	}
}

type versionRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

// HandleCreate handles POST /api/invoices
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req invoices.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inv, version, err := h.service.CreateInvoice(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Failed to create invoice")
		return
	}

	h.writeInvoice(w, r, http.StatusCreated, inv, version)
}

// HandleList handles GET /api/invoices
// Query: status (comma-separated), customer_id, overdue=true
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := invoices.Filter{CustomerID: q.Get("customer_id")}
	for _, s := range utils.ParseCSV(q.Get("status")) {
		filter.Statuses = append(filter.Statuses, invoices.Status(s))
	}
	if overdue, err := strconv.ParseBool(q.Get("overdue")); err == nil {
		filter.OverdueOnly = overdue
	}

	list, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		h.writeError(w, err, "Failed to list invoices")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(list),
		},
	})
}

// HandleGet handles GET /api/invoices/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	inv, version, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to get invoice")
		return
	}

	h.writeInvoice(w, r, http.StatusOK, inv, version)
}

// HandleEdit handles PUT /api/invoices/{id}
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req invoices.EditInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inv, version, err := h.service.EditInvoice(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err, "Failed to edit invoice")
		return
	}

	h.writeInvoice(w, r, http.StatusOK, inv, version)
}

// HandleSend handles POST /api/invoices/{id}/send
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.SendInvoice)
}

// HandleView handles POST /api/invoices/{id}/view
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.MarkViewed)
}

// HandleCancel handles POST /api/invoices/{id}/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.CancelInvoice)
}

type transitionFunc func(ctx context.Context, id string, expectedVersion int64) (invoices.Invoice, int64, error)

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	// The body is optional.
	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inv, version, err := fn(r.Context(), chi.URLParam(r, "id"), req.ExpectedVersion)
	if err != nil {
		h.writeError(w, err, "Failed to change invoice status")
		return
	}

	h.writeInvoice(w, r, http.StatusOK, inv, version)
}

func (h *Handler) writeInvoice(w http.ResponseWriter, r *http.Request, status int, inv invoices.Invoice, version int64) {
	metadata := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}
	if h.balances != nil {
		if balance, err := h.balances.GetBalance(r.Context(), inv.ID); err != nil {
			h.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("Failed to derive balance")
		} else {
			metadata["balance"] = balance
		}
	}

	h.writeJSON(w, status, map[string]interface{}{
		"data":     inv,
		"metadata": metadata,
	})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, invoices.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, invoices.ErrInvoiceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, invoices.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, status)
		return
	}

	body := map[string]interface{}{"error": err.Error()}
	if fields := validation.Errors(err); len(fields) > 0 {
		body["fields"] = fields
	}
	h.writeJSON(w, status, body)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Package handlers provides HTTP handlers for payments and balances.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	reconciler *ledger.Reconciler
	log        zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(reconciler *ledger.Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		log:        log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleRecordPayment handles POST /api/invoices/{id}/payments
func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req ledger.RecordPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.InvoiceID = chi.URLParam(r, "id")

	payment, balance, err := h.reconciler.RecordPayment(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Failed to record payment")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": payment,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"balance":   balance,
		},
	})
}

// HandleListPayments handles GET /api/invoices/{id}/payments
func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.reconciler.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to list payments")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": payments,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(payments),
		},
	})
}

// HandleInvoicePaymentsCSV handles GET /api/invoices/{id}/payments.csv
func (h *Handler) HandleInvoicePaymentsCSV(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	payments, err := h.reconciler.ListPayments(r.Context(), invoiceID)
	if err != nil {
		h.writeError(w, err, "Failed to list payments")
		return
	}

	h.writeCSV(w, fmt.Sprintf("payments-%s.csv", invoiceID), payments)
}

// HandleAllPaymentsCSV handles GET /api/ledger/payments.csv
func (h *Handler) HandleAllPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	payments, err := h.reconciler.AllPayments(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to list payments")
		return
	}

	h.writeCSV(w, "payments.csv", payments)
}

// HandleGetBalance handles GET /api/invoices/{id}/balance
func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.reconciler.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to get balance")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": balance,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReconcile handles POST /api/invoices/{id}/reconcile
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	inv, err := h.reconciler.Reconcile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "Failed to reconcile invoice")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": inv,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

type updateStatusRequest struct {
	Status          ledger.PaymentStatus `json:"status"`
	ExpectedVersion int64                `json:"expected_version"`
}

// HandleUpdatePaymentStatus handles PATCH /api/payments/{id}
func (h *Handler) HandleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	payment, balance, err := h.reconciler.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.ExpectedVersion)
	if err != nil {
		h.writeError(w, err, "Failed to update payment")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": payment,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"balance":   balance,
		},
	})
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, payments []ledger.Payment) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := ledger.WritePaymentsCSV(w, payments); err != nil {
		h.log.Error().Err(err).Msg("Failed to write payments CSV")
	}
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvoiceNotFound), errors.Is(err, ledger.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrOverpayment), errors.Is(err, ledger.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrVersionConflict):
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

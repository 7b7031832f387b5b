package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterInvoiceRoutes registers the per-invoice ledger routes on a router
// mounted at /invoices.
func (h *Handler) RegisterInvoiceRoutes(r chi.Router) {
	r.Get("/{id}/balance", h.HandleGetBalance)
	r.Post("/{id}/reconcile", h.HandleReconcile)
	r.Get("/{id}/payments", h.HandleListPayments)
	r.Post("/{id}/payments", h.HandleRecordPayment)
	r.Get("/{id}/payments.csv", h.HandleInvoicePaymentsCSV)
}

// RegisterRoutes registers the payment and export routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Patch("/payments/{id}", h.HandleUpdatePaymentStatus)
	r.Get("/ledger/payments.csv", h.HandleAllPaymentsCSV)
}

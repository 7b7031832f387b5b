package ledger

import (
	"errors"

	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/store"
)

var (
	// ErrOverpayment is returned when a payment would take the amount paid
	// past the invoice total.
	ErrOverpayment = errors.New("payment exceeds remaining balance")
	// ErrPaymentNotFound is returned when no payment has the requested id.
	ErrPaymentNotFound = errors.New("payment not found")

	ErrValidation        = invoices.ErrValidation
	ErrInvoiceNotFound   = invoices.ErrInvoiceNotFound
	ErrInvalidTransition = invoices.ErrInvalidTransition
	ErrVersionConflict   = store.ErrVersionConflict
)

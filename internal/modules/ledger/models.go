// Package ledger records payments against invoices and derives each
// invoice's paid status and balance from the full payment history.
package ledger

import (
	"time"

	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/shopspring/decimal"
)

// Method is how a payment was made.
type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodFinancing    Method = "financing"
)

// PaymentStatus is the processing state of a payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	// PaymentRefunded marks a refund entry: money returned to the customer.
	PaymentRefunded PaymentStatus = "refunded"
)

// StatusChange is one entry of a payment's status history.
type StatusChange struct {
	From PaymentStatus `json:"from,omitempty"`
	To   PaymentStatus `json:"to"`
	At   time.Time     `json:"at"`
}

// Payment is an append-only ledger entry. Payments are never deleted; a
// correction is a new payment (a refund) or a status change.
type Payment struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        Method          `json:"method"`
	Status        PaymentStatus   `json:"status"`
	ProcessedDate time.Time       `json:"processed_date"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	History       []StatusChange  `json:"history"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Document is the unit of persistence: an invoice with its payments.
type Document struct {
	Invoice  invoices.Invoice `json:"invoice"`
	Payments []Payment        `json:"payments"`
}

// Balance is the derived financial state of an invoice.
type Balance struct {
	InvoiceID        string          `json:"invoice_id"`
	Status           invoices.Status `json:"status"`
	Total            decimal.Decimal `json:"total"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Overdue          bool            `json:"overdue"`
	DaysOverdue      int             `json:"days_overdue,omitempty"`
}

// RecordPaymentInput is a payment submission.
type RecordPaymentInput struct {
	InvoiceID string          `json:"-"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Method    Method          `json:"method" validate:"required,oneof=credit_card bank_transfer cash check financing"`
	// Status defaults to completed.
	Status PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=pending processing completed failed refunded"`
	// Date is YYYY-MM-DD or RFC3339; empty means now.
	Date            string `json:"date,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
}

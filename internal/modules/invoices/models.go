// Package invoices holds the invoice domain: line items, totals, and the
// status machine. Persistence and payments live in the ledger module, which
// implements Repository.
package invoices

import (
	"time"

	"github.com/aristath/dealerledger/internal/utils"
	"github.com/shopspring/decimal"
)

// Status is the stored lifecycle state of an invoice. Overdue is derived and
// never stored.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Item is one invoice line.
type Item struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Invoice is a bill issued to a customer.
type Invoice struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	CustomerID    string          `json:"customer_id"`
	Items         []Item          `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	DueDate       time.Time       `json:"due_date"`
	Status        Status          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	ViewedAt      *time.Time      `json:"viewed_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the invoice is still open after the last day it
// was due.
func (inv Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == StatusPaid || inv.Status == StatusCancelled {
		return false
	}
	if inv.DueDate.IsZero() {
		return false
	}
	return now.After(utils.EndOfDay(inv.DueDate))
}

// DaysOverdue is the number of whole days past the due date, 0 if not overdue.
func (inv Invoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(utils.EndOfDay(inv.DueDate)).Hours()/24) + 1
}

// Editable reports whether items and due date may still change.
func (inv Invoice) Editable() bool {
	return inv.Status == StatusDraft
}

// ItemInput is a line as submitted by a client; LineTotal is always computed.
type ItemInput struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// CreateInput is the request to create a draft invoice.
type CreateInput struct {
	Number     string      `json:"number,omitempty"`
	CustomerID string      `json:"customer_id" validate:"required"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
	// DueDate is YYYY-MM-DD or RFC3339; empty means the configured default.
	DueDate string `json:"due_date,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// EditInput replaces the items and due date of a draft invoice.
type EditInput struct {
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	DueDate         string      `json:"due_date,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	ExpectedVersion int64       `json:"expected_version,omitempty"`
}

// Filter narrows ListInvoices.
type Filter struct {
	Statuses    []Status // any of; empty matches all
	CustomerID  string
	OverdueOnly bool
}

func (f Filter) matchesStatus(s Status) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if s == want {
			return true
		}
	}
	return false
}

package invoices

import (
	"fmt"
	"time"
)

// transitions lists every legal status change. The paid edges are driven
// only by payment reconciliation.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusSent, StatusCancelled},
	StatusSent:   {StatusViewed, StatusPaid, StatusCancelled},
	StatusViewed: {StatusPaid, StatusCancelled},
	StatusPaid:   {StatusSent, StatusViewed},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves inv to status to and stamps the matching timestamp.
func (inv *Invoice) Transition(to Status, now time.Time) error {
	if !CanTransition(inv.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, to)
	}

	at := now.UTC()
	switch to {
	case StatusSent:
		if inv.SentAt == nil {
			inv.SentAt = &at
		}
	case StatusViewed:
		if inv.ViewedAt == nil {
			inv.ViewedAt = &at
		}
	case StatusCancelled:
		inv.CancelledAt = &at
	}
	if inv.Status == StatusPaid {
		inv.PaidDate = nil
		inv.PaymentMethod = ""
	}

	inv.Status = to
	inv.UpdatedAt = at
	return nil
}

// MarkPaid moves a sent or viewed invoice to paid.
func (inv *Invoice) MarkPaid(paidDate time.Time, method string, now time.Time) error {
	if err := inv.Transition(StatusPaid, now); err != nil {
		return err
	}
	pd := paidDate.UTC()
	inv.PaidDate = &pd
	inv.PaymentMethod = method
	return nil
}

// Reopen reverts a paid invoice to the state it had before payment.
func (inv *Invoice) Reopen(now time.Time) error {
	to := StatusSent
	if inv.ViewedAt != nil {
		to = StatusViewed
	}
	return inv.Transition(to, now)
}

package ledger

import (
	"time"

	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/shopspring/decimal"
)

// PaidToDate folds the payment history: completed payments count in full,
// refunds count against them, everything else is ignored.
func PaidToDate(payments []Payment) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range payments {
		switch p.Status {
		case PaymentCompleted:
			paid = paid.Add(p.Amount)
		case PaymentRefunded:
			paid = paid.Sub(p.Amount)
		}
	}
	return paid
}

// remaining is total minus paid-to-date, clamped at zero. clamped reports
// whether the clamp applied.
func remaining(inv invoices.Invoice, payments []Payment) (balance decimal.Decimal, clamped bool) {
	if inv.Status == invoices.StatusCancelled {
		return decimal.Zero, false
	}
	balance = inv.Total.Sub(PaidToDate(payments))
	if balance.IsNegative() {
		return decimal.Zero, true
	}
	return balance, false
}

// ComputeBalance derives the balance of doc at now.
func ComputeBalance(doc Document, now time.Time) (Balance, bool) {
	rem, clamped := remaining(doc.Invoice, doc.Payments)
	return Balance{
		InvoiceID:        doc.Invoice.ID,
		Status:           doc.Invoice.Status,
		Total:            doc.Invoice.Total,
		TotalPaid:        PaidToDate(doc.Payments),
		RemainingBalance: rem,
		Overdue:          doc.Invoice.IsOverdue(now),
		DaysOverdue:      doc.Invoice.DaysOverdue(now),
	}, clamped
}

// settlingPayment is the completed payment that brought paid-to-date up to
// total, walking payments in processing order.
func settlingPayment(total decimal.Decimal, payments []Payment) (Payment, bool) {
	paid := decimal.Zero
	var settling Payment
	found := false
	for _, p := range payments {
		switch p.Status {
		case PaymentCompleted:
			paid = paid.Add(p.Amount)
			if !found && paid.GreaterThanOrEqual(total) {
				settling, found = p, true
			}
		case PaymentRefunded:
			paid = paid.Sub(p.Amount)
			if paid.LessThan(total) {
				found = false
			}
		}
	}
	return settling, found
}

// reconcile sets or clears the paid status of doc from its payments and
// reports the status it had before. This is the only place an invoice
// becomes paid or stops being paid.
func reconcile(doc *Document, now time.Time) (from invoices.Status, changed bool, err error) {
	inv := &doc.Invoice
	from = inv.Status
	paid := PaidToDate(doc.Payments)

	switch {
	case inv.Status == invoices.StatusSent || inv.Status == invoices.StatusViewed:
		if paid.LessThan(inv.Total) {
			return from, false, nil
		}
		settling, ok := settlingPayment(inv.Total, doc.Payments)
		if !ok {
			settling = doc.Payments[len(doc.Payments)-1]
		}
		if err := inv.MarkPaid(settling.ProcessedDate, string(settling.Method), now); err != nil {
			return from, false, err
		}
		return from, true, nil

	case inv.Status == invoices.StatusPaid:
		if paid.GreaterThanOrEqual(inv.Total) {
			return from, false, nil
		}
		if err := inv.Reopen(now); err != nil {
			return from, false, err
		}
		return from, true, nil
	}

	return from, false, nil
}

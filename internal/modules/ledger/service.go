package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/utils"
	"github.com/aristath/dealerledger/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// paymentTransitions lists legal payment status changes. Completed, failed
// and refunded are final; a refund is recorded as a new payment.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
}

func canTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reconciler records payments and keeps each invoice's paid status in line
// with its payment history.
type Reconciler struct {
	repo   *Repository
	events *events.Manager
	nowFn  func() time.Time
	log    zerolog.Logger
}

// NewReconciler creates a reconciler. eventManager may be nil.
func NewReconciler(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		events: eventManager,
		nowFn:  time.Now,
		log:    log.With().Str("service", "ledger").Logger(),
	}
}

// RecordPayment appends a payment to an invoice and reconciles it.
//
// A payment must be positive. Unless it is a refund it may not exceed the
// remaining balance; a refund may not exceed what has been paid. Invoices in
// draft or cancelled state take no payments. On any error nothing is stored.
func (s *Reconciler) RecordPayment(ctx context.Context, in RecordPaymentInput) (Payment, Balance, error) {
	if err := validation.Struct(ErrValidation, in); err != nil {
		return Payment{}, Balance{}, err
	}
	if in.Status == "" {
		in.Status = PaymentCompleted
	}

	now := s.nowFn().UTC()
	processed := now
	if in.Date != "" {
		date, err := utils.ParseDate(in.Date)
		if err != nil {
			return Payment{}, Balance{}, fmt.Errorf("%w: date: %v", ErrValidation, err)
		}
		processed = date
	}

	payment := Payment{
		ID:            uuid.New().String(),
		InvoiceID:     in.InvoiceID,
		Amount:        in.Amount,
		Method:        in.Method,
		Status:        in.Status,
		ProcessedDate: processed,
		TransactionID: in.TransactionID,
		Notes:         in.Notes,
		History:       []StatusChange{{To: in.Status, At: now}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var from invoices.Status
	var changed bool
	doc, _, err := s.repo.MutateDocument(ctx, in.InvoiceID, in.ExpectedVersion, func(doc *Document) error {
		if err := acceptsPayments(doc.Invoice); err != nil {
			return err
		}
		if err := checkAmount(*doc, payment.Status, payment.Amount); err != nil {
			return err
		}

		doc.Payments = append(doc.Payments, payment)

		var err error
		from, changed, err = reconcile(doc, now)
		return err
	})
	if err != nil {
		return Payment{}, Balance{}, err
	}

	if err := s.repo.IndexPayment(ctx, payment.ID, payment.InvoiceID); err != nil {
		// The payment is stored; only the id lookup is missing.
		s.log.Error().Err(err).Str("payment_id", payment.ID).Msg("Failed to index payment")
		s.emitError(err, map[string]interface{}{"payment_id": payment.ID})
	}

	s.log.Info().
		Str("invoice_id", payment.InvoiceID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("status", string(payment.Status)).
		Msg("Payment recorded")
	s.emit(&events.PaymentRecordedData{
		PaymentID: payment.ID,
		InvoiceID: payment.InvoiceID,
		Amount:    payment.Amount.StringFixed(2),
		Method:    string(payment.Method),
		Status:    string(payment.Status),
	})
	s.emitReconciled(doc, from, changed)

	balance := s.balance(doc)
	return payment, balance, nil
}

// UpdatePaymentStatus moves a payment along pending -> processing ->
// completed|failed and reconciles its invoice.
func (s *Reconciler) UpdatePaymentStatus(
	ctx context.Context,
	paymentID string,
	to PaymentStatus,
	expectedVersion int64,
) (Payment, Balance, error) {
	invoiceID, err := s.repo.InvoiceForPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, Balance{}, err
	}

	now := s.nowFn().UTC()
	var updated Payment
	var previous PaymentStatus
	var from invoices.Status
	var changed bool

	doc, _, err := s.repo.MutateDocument(ctx, invoiceID, expectedVersion, func(doc *Document) error {
		idx := -1
		for i := range doc.Payments {
			if doc.Payments[i].ID == paymentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
		}

		p := &doc.Payments[idx]
		if !canTransitionPayment(p.Status, to) {
			return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, p.Status, to)
		}
		if to == PaymentCompleted {
			if err := acceptsPayments(doc.Invoice); err != nil {
				return err
			}
			others := make([]Payment, 0, len(doc.Payments)-1)
			others = append(others, doc.Payments[:idx]...)
			others = append(others, doc.Payments[idx+1:]...)
			if err := checkAmount(Document{Invoice: doc.Invoice, Payments: others}, to, p.Amount); err != nil {
				return err
			}
		}

		previous = p.Status
		p.Status = to
		p.UpdatedAt = now
		p.History = append(p.History, StatusChange{From: previous, To: to, At: now})
		updated = *p

		var err error
		from, changed, err = reconcile(doc, now)
		return err
	})
	if err != nil {
		return Payment{}, Balance{}, err
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("payment_id", paymentID).
		Str("from", string(previous)).
		Str("to", string(to)).
		Msg("Payment status changed")
	s.emit(&events.PaymentStatusChangedData{
		PaymentID: paymentID,
		InvoiceID: invoiceID,
		From:      string(previous),
		To:        string(to),
	})
	s.emitReconciled(doc, from, changed)

	return updated, s.balance(doc), nil
}

// Reconcile re-derives the paid status of an invoice from its payments.
func (s *Reconciler) Reconcile(ctx context.Context, invoiceID string) (invoices.Invoice, error) {
	var from invoices.Status
	var changed bool
	doc, _, err := s.repo.MutateDocument(ctx, invoiceID, 0, func(doc *Document) error {
		var err error
		from, changed, err = reconcile(doc, s.nowFn().UTC())
		return err
	})
	if err != nil {
		return invoices.Invoice{}, err
	}

	s.emitReconciled(doc, from, changed)
	return doc.Invoice, nil
}

// GetBalance returns the paid-to-date, remaining balance and overdue flag of
// an invoice. It never writes.
func (s *Reconciler) GetBalance(ctx context.Context, invoiceID string) (Balance, error) {
	doc, _, err := s.repo.LoadDocument(ctx, invoiceID)
	if err != nil {
		return Balance{}, err
	}
	return s.balance(doc), nil
}

// ListPayments returns an invoice's payments in the order they were recorded.
func (s *Reconciler) ListPayments(ctx context.Context, invoiceID string) ([]Payment, error) {
	doc, _, err := s.repo.LoadDocument(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return doc.Payments, nil
}

// AllPayments returns every payment of every invoice, oldest first.
func (s *Reconciler) AllPayments(ctx context.Context) ([]Payment, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var all []Payment
	for _, doc := range docs {
		all = append(all, doc.Payments...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

// Documents returns every invoice with its derived balance.
func (s *Reconciler) Documents(ctx context.Context) ([]Document, []Balance, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, nil, err
	}
	balances := make([]Balance, 0, len(docs))
	for _, doc := range docs {
		balances = append(balances, s.balance(doc))
	}
	return docs, balances, nil
}

func (s *Reconciler) balance(doc Document) Balance {
	balance, clamped := ComputeBalance(doc, s.nowFn())
	if clamped {
		s.log.Warn().
			Str("invoice_id", doc.Invoice.ID).
			Str("total", balance.Total.StringFixed(2)).
			Str("total_paid", balance.TotalPaid.StringFixed(2)).
			Msg("Payments exceed invoice total, clamping balance to zero")
		s.emit(&events.BalanceClampedData{
			InvoiceID: doc.Invoice.ID,
			Total:     balance.Total.StringFixed(2),
			TotalPaid: balance.TotalPaid.StringFixed(2),
		})
	}
	return balance
}

func acceptsPayments(inv invoices.Invoice) error {
	switch inv.Status {
	case invoices.StatusDraft, invoices.StatusCancelled:
		return fmt.Errorf("%w: invoice %s is %s and takes no payments", ErrInvalidTransition, inv.ID, inv.Status)
	}
	return nil
}

// checkAmount bounds a payment of the given status against the payments
// already in doc. Refunds are bounded by paid-to-date, everything else by
// the remaining balance.
func checkAmount(doc Document, status PaymentStatus, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	paid := PaidToDate(doc.Payments)
	if status == PaymentRefunded {
		if amount.GreaterThan(paid) {
			return fmt.Errorf("%w: refund %s exceeds paid to date %s",
				ErrValidation, amount.StringFixed(2), paid.StringFixed(2))
		}
		return nil
	}

	left := doc.Invoice.Total.Sub(paid)
	if amount.GreaterThan(left) {
		return fmt.Errorf("%w: amount %s, remaining %s",
			ErrOverpayment, amount.StringFixed(2), left.StringFixed(2))
	}
	return nil
}

func (s *Reconciler) emitReconciled(doc Document, from invoices.Status, changed bool) {
	if !changed {
		return
	}
	inv := doc.Invoice
	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("from", string(from)).
		Str("to", string(inv.Status)).
		Msg("Invoice reconciled")
	s.emit(&events.InvoiceStatusChangedData{InvoiceID: inv.ID, From: string(from), To: string(inv.Status)})
	if inv.Status == invoices.StatusPaid && inv.PaidDate != nil {
		s.emit(&events.InvoicePaidData{
			InvoiceID:     inv.ID,
			TotalPaid:     PaidToDate(doc.Payments).StringFixed(2),
			PaidDate:      utils.FormatDate(*inv.PaidDate),
			PaymentMethod: inv.PaymentMethod,
		})
	}
}

func (s *Reconciler) emit(data events.EventData) {
	if s.events != nil {
		s.events.Emit("ledger", data)
	}
}

func (s *Reconciler) emitError(err error, fields map[string]interface{}) {
	if s.events != nil {
		s.events.EmitError("ledger", err, fields)
	}
}

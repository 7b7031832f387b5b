package invoices

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/utils"
	"github.com/aristath/dealerledger/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository persists invoices with an optimistic version.
type Repository interface {
	// Create stores a new invoice and returns its first version.
	Create(ctx context.Context, inv Invoice) (int64, error)
	// Get returns the invoice and its current version, or ErrInvoiceNotFound.
	Get(ctx context.Context, id string) (Invoice, int64, error)
	// List returns every invoice.
	List(ctx context.Context) ([]Invoice, error)
	// Update applies fn under the invoice's lock and saves the result. A
	// non-zero expectedVersion must match the stored version.
	Update(ctx context.Context, id string, expectedVersion int64, fn func(*Invoice) error) (Invoice, int64, error)
}

// Defaults supplies configurable invoice defaults.
type Defaults interface {
	InvoiceTaxRate(ctx context.Context) (decimal.Decimal, error)
	DefaultDueDays(ctx context.Context) (int, error)
}

// Service manages the invoice lifecycle up to payment. Payment-driven status
// changes belong to the ledger reconciler.
type Service struct {
	repo     Repository
	defaults Defaults
	events   *events.Manager
	nowFn    func() time.Time
	log      zerolog.Logger
}

// NewService creates an invoice service. eventManager may be nil.
func NewService(repo Repository, defaults Defaults, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		events:   eventManager,
		nowFn:    time.Now,
		log:      log.With().Str("service", "invoices").Logger(),
	}
}

// CreateInvoice creates a draft invoice taxed at the configured rate.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInput) (Invoice, int64, error) {
	if err := validation.Struct(ErrValidation, in); err != nil {
		return Invoice{}, 0, err
	}

	now := s.nowFn().UTC()
	dueDate, err := s.dueDate(ctx, in.DueDate, now)
	if err != nil {
		return Invoice{}, 0, err
	}

	taxRate, err := s.defaults.InvoiceTaxRate(ctx)
	if err != nil {
		return Invoice{}, 0, fmt.Errorf("failed to read tax rate: %w", err)
	}

	id := uuid.New().String()
	number := strings.TrimSpace(in.Number)
	if number == "" {
		number = generateNumber(id, now)
	}

	inv := Invoice{
		ID:         id,
		Number:     number,
		CustomerID: in.CustomerID,
		DueDate:    dueDate,
		Status:     StatusDraft,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	inv.applyItems(in.Items, taxRate)
	if !inv.Total.IsPositive() {
		return Invoice{}, 0, fmt.Errorf("%w: invoice total must be positive", ErrValidation)
	}

	version, err := s.repo.Create(ctx, inv)
	if err != nil {
		return Invoice{}, 0, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("total", inv.Total.StringFixed(2)).
		Msg("Invoice created")
	s.emit(&events.InvoiceCreatedData{
		InvoiceID:  inv.ID,
		Number:     inv.Number,
		CustomerID: inv.CustomerID,
		Total:      inv.Total.StringFixed(2),
	})

	return inv, version, nil
}

// EditInvoice replaces the items (and optionally due date and notes) of a
// draft invoice and recomputes every total. The tax rate is re-read.
func (s *Service) EditInvoice(ctx context.Context, id string, in EditInput) (Invoice, int64, error) {
	if err := validation.Struct(ErrValidation, in); err != nil {
		return Invoice{}, 0, err
	}

	taxRate, err := s.defaults.InvoiceTaxRate(ctx)
	if err != nil {
		return Invoice{}, 0, fmt.Errorf("failed to read tax rate: %w", err)
	}

	var dueDate time.Time
	if in.DueDate != "" {
		if dueDate, err = utils.ParseDate(in.DueDate); err != nil {
			return Invoice{}, 0, fmt.Errorf("%w: due_date: %v", ErrValidation, err)
		}
	}

	inv, version, err := s.repo.Update(ctx, id, in.ExpectedVersion, func(inv *Invoice) error {
		if !inv.Editable() {
			return fmt.Errorf("%w: items are locked once the invoice is %s", ErrInvalidTransition, inv.Status)
		}
		inv.applyItems(in.Items, taxRate)
		if !inv.Total.IsPositive() {
			return fmt.Errorf("%w: invoice total must be positive", ErrValidation)
		}
		if !dueDate.IsZero() {
			inv.DueDate = dueDate
		}
		if in.Notes != nil {
			inv.Notes = *in.Notes
		}
		inv.UpdatedAt = s.nowFn().UTC()
		return nil
	})
	if err != nil {
		return Invoice{}, 0, err
	}

	s.emit(&events.InvoiceUpdatedData{InvoiceID: inv.ID, Total: inv.Total.StringFixed(2)})
	return inv, version, nil
}

// SendInvoice moves a draft to sent.
func (s *Service) SendInvoice(ctx context.Context, id string, expectedVersion int64) (Invoice, int64, error) {
	return s.transition(ctx, id, expectedVersion, StatusSent)
}

// MarkViewed records that the customer opened a sent invoice. Viewing an
// invoice that is already viewed or paid is a no-op.
func (s *Service) MarkViewed(ctx context.Context, id string, expectedVersion int64) (Invoice, int64, error) {
	inv, version, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, 0, err
	}
	if inv.Status == StatusViewed || inv.Status == StatusPaid {
		return inv, version, nil
	}
	return s.transition(ctx, id, expectedVersion, StatusViewed)
}

// CancelInvoice cancels an unpaid invoice. Cancelled is terminal.
func (s *Service) CancelInvoice(ctx context.Context, id string, expectedVersion int64) (Invoice, int64, error) {
	return s.transition(ctx, id, expectedVersion, StatusCancelled)
}

// GetInvoice returns an invoice and its version.
func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, int64, error) {
	return s.repo.Get(ctx, id)
}

// ListInvoices returns invoices matching f, newest first.
func (s *Service) ListInvoices(ctx context.Context, f Filter) ([]Invoice, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	out := make([]Invoice, 0, len(all))
	for _, inv := range all {
		if !f.matchesStatus(inv.Status) {
			continue
		}
		if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
			continue
		}
		if f.OverdueOnly && !inv.IsOverdue(now) {
			continue
		}
		out = append(out, inv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number > out[j].Number
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Service) transition(ctx context.Context, id string, expectedVersion int64, to Status) (Invoice, int64, error) {
	var from Status
	inv, version, err := s.repo.Update(ctx, id, expectedVersion, func(inv *Invoice) error {
		if to == StatusPaid || inv.Status == StatusPaid {
			return fmt.Errorf("%w: paid status follows payments", ErrInvalidTransition)
		}
		from = inv.Status
		return inv.Transition(to, s.nowFn())
	})
	if err != nil {
		return Invoice{}, 0, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Invoice status changed")
	s.emit(&events.InvoiceStatusChangedData{InvoiceID: inv.ID, From: string(from), To: string(to)})
	return inv, version, nil
}

func (s *Service) dueDate(ctx context.Context, raw string, now time.Time) (time.Time, error) {
	if raw != "" {
		due, err := utils.ParseDate(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: due_date: %v", ErrValidation, err)
		}
		return due, nil
	}

	days, err := s.defaults.DefaultDueDays(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read default due days: %w", err)
	}
	y, m, d := now.AddDate(0, 0, days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (s *Service) emit(data events.EventData) {
	if s.events != nil {
		s.events.Emit("invoices", data)
	}
}

// generateNumber builds INV-YYYYMMDD-XXXXXXXX from the creation date and id.
func generateNumber(id string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/dealerledger/internal/locking"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/rs/zerolog"
)

const (
	invoicePrefix = "invoices/"
	paymentPrefix = "payments/"
)

// Repository stores ledger documents under "invoices/<id>" and a payment id
// index under "payments/<id>". Every mutation runs under the invoice's lock
// and is saved with SaveIfVersion, so concurrent writers never overwrite each
// other.
type Repository struct {
	store  store.Store
	locker locking.Locker
	log    zerolog.Logger
}

// NewRepository creates a ledger repository.
func NewRepository(s store.Store, locker locking.Locker, log zerolog.Logger) *Repository {
	return &Repository{
		store:  s,
		locker: locker,
		log:    log.With().Str("repo", "ledger").Logger(),
	}
}

func invoiceKey(id string) string { return invoicePrefix + id }
func paymentKey(id string) string { return paymentPrefix + id }

// LoadDocument returns the document for invoiceID and its version.
func (r *Repository) LoadDocument(ctx context.Context, invoiceID string) (Document, int64, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return Document{}, 0, fmt.Errorf("%w: empty invoice id", ErrInvoiceNotFound)
	}

	var doc Document
	version, found, err := r.store.Load(ctx, invoiceKey(invoiceID), &doc)
	if err != nil {
		return Document{}, 0, fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}
	if !found {
		return Document{}, 0, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
	}
	return doc, version, nil
}

// CreateDocument stores a new document. It fails with ErrVersionConflict if
// the invoice id is already taken.
func (r *Repository) CreateDocument(ctx context.Context, doc Document) (int64, error) {
	if doc.Payments == nil {
		doc.Payments = []Payment{}
	}
	version, err := r.store.SaveIfVersion(ctx, invoiceKey(doc.Invoice.ID), 0, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to create invoice %s: %w", doc.Invoice.ID, err)
	}
	return version, nil
}

// MutateDocument loads the document, applies fn and saves it, all under the
// invoice lock. A non-zero expectedVersion must equal the stored version.
// Nothing is written when fn returns an error.
func (r *Repository) MutateDocument(
	ctx context.Context,
	invoiceID string,
	expectedVersion int64,
	fn func(*Document) error,
) (Document, int64, error) {
	release, err := r.locker.Lock(ctx, invoiceKey(invoiceID))
	if err != nil {
		return Document{}, 0, fmt.Errorf("failed to lock invoice %s: %w", invoiceID, err)
	}
	defer release()

	doc, version, err := r.LoadDocument(ctx, invoiceID)
	if err != nil {
		return Document{}, 0, err
	}
	if expectedVersion != 0 && expectedVersion != version {
		return Document{}, 0, fmt.Errorf("%w: invoice %s is at version %d, not %d",
			ErrVersionConflict, invoiceID, version, expectedVersion)
	}

	if err := fn(&doc); err != nil {
		return Document{}, 0, err
	}

	newVersion, err := r.store.SaveIfVersion(ctx, invoiceKey(invoiceID), version, doc)
	if err != nil {
		return Document{}, 0, fmt.Errorf("failed to save invoice %s: %w", invoiceID, err)
	}
	return doc, newVersion, nil
}

// ListDocuments returns every stored document.
func (r *Repository) ListDocuments(ctx context.Context) ([]Document, error) {
	keys, err := r.store.List(ctx, invoicePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		var doc Document
		_, found, err := r.store.Load(ctx, key, &doc)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			// Deleted between List and Load.
			r.log.Warn().Str("key", key).Msg("Listed invoice disappeared")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// IndexPayment records which invoice a payment belongs to.
func (r *Repository) IndexPayment(ctx context.Context, paymentID, invoiceID string) error {
	if _, err := r.store.Save(ctx, paymentKey(paymentID), invoiceID); err != nil {
		return fmt.Errorf("failed to index payment %s: %w", paymentID, err)
	}
	return nil
}

// InvoiceForPayment resolves a payment id to its invoice id.
func (r *Repository) InvoiceForPayment(ctx context.Context, paymentID string) (string, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", fmt.Errorf("%w: empty payment id", ErrPaymentNotFound)
	}

	var invoiceID string
	_, found, err := r.store.Load(ctx, paymentKey(paymentID), &invoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve payment %s: %w", paymentID, err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}
	return invoiceID, nil
}

// Create implements invoices.Repository.
func (r *Repository) Create(ctx context.Context, inv invoices.Invoice) (int64, error) {
	version, err := r.CreateDocument(ctx, Document{Invoice: inv})
	if errors.Is(err, store.ErrVersionConflict) {
		return 0, fmt.Errorf("%w: invoice %s already exists", ErrValidation, inv.ID)
	}
	return version, err
}

// Get implements invoices.Repository.
func (r *Repository) Get(ctx context.Context, id string) (invoices.Invoice, int64, error) {
	doc, version, err := r.LoadDocument(ctx, id)
	if err != nil {
		return invoices.Invoice{}, 0, err
	}
	return doc.Invoice, version, nil
}

// List implements invoices.Repository.
func (r *Repository) List(ctx context.Context) ([]invoices.Invoice, error) {
	docs, err := r.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]invoices.Invoice, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Invoice)
	}
	return out, nil
}

// Update implements invoices.Repository.
func (r *Repository) Update(
	ctx context.Context,
	id string,
	expectedVersion int64,
	fn func(*invoices.Invoice) error,
) (invoices.Invoice, int64, error) {
	doc, version, err := r.MutateDocument(ctx, id, expectedVersion, func(doc *Document) error {
		return fn(&doc.Invoice)
	})
	if err != nil {
		return invoices.Invoice{}, 0, err
	}
	return doc.Invoice, version, nil
}

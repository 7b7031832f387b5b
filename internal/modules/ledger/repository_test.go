package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/dealerledger/internal/locking"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/store"
	testutil "github.com/aristath/dealerledger/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testutil.NewTestStore(t, "ledger"), locking.NewLocalLocker(), zerolog.Nop())
}

func TestRepository_DocumentRoundTrip(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	due := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	inv := invoices.Invoice{
		ID:         "inv-1",
		Number:     "A-1",
		CustomerID: "cust-1",
		Items: []invoices.Item{
			{Description: "Labor", Quantity: dec("1.5"), UnitPrice: dec("120"), LineTotal: dec("180")},
		},
		Subtotal: dec("180"),
		TaxRate:  dec("0.08"),
		Tax:      dec("14.4"),
		Total:    dec("194.4"),
		DueDate:  due,
		Status:   invoices.StatusSent,
	}

	version, err := repo.Create(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = repo.Create(ctx, inv)
	assert.ErrorIs(t, err, ErrValidation, "ids are unique")

	got, gotVersion, err := repo.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotVersion)
	assert.True(t, got.Total.Equal(dec("194.40")))
	assert.True(t, got.Items[0].Quantity.Equal(dec("1.5")))
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, invoices.StatusSent, got.Status)

	_, _, err = repo.Get(ctx, "inv-2")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestRepository_MutateDocument(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	_, err := repo.CreateDocument(ctx, Document{Invoice: invoices.Invoice{ID: "inv-1", Total: dec("10")}})
	require.NoError(t, err)

	doc, version, err := repo.MutateDocument(ctx, "inv-1", 1, func(doc *Document) error {
		doc.Payments = append(doc.Payments, Payment{ID: "p-1", Amount: dec("4"), Status: PaymentCompleted})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Len(t, doc.Payments, 1)

	_, _, err = repo.MutateDocument(ctx, "inv-1", 1, func(*Document) error { return nil })
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, _, err = repo.MutateDocument(ctx, "inv-1", 0, func(*Document) error { return ErrOverpayment })
	assert.ErrorIs(t, err, ErrOverpayment)

	stored, storedVersion, err := repo.LoadDocument(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), storedVersion)
	require.Len(t, stored.Payments, 1)
	assert.True(t, stored.Payments[0].Amount.Equal(dec("4")))
}

func TestRepository_PaymentIndex(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.IndexPayment(ctx, "p-1", "inv-1"))

	invoiceID, err := repo.InvoiceForPayment(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", invoiceID)

	_, err = repo.InvoiceForPayment(ctx, "p-2")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs, "the payment index is not an invoice")
}

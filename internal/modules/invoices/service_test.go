package invoices

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	invoices map[string]Invoice
	versions map[string]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: map[string]Invoice{}, versions: map[string]int64{}}
}

func (f *fakeRepo) Create(_ context.Context, inv Invoice) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[inv.ID] = inv
	f.versions[inv.ID] = 1
	return 1, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return Invoice{}, 0, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	return inv, f.versions[id], nil
}

func (f *fakeRepo) List(_ context.Context) ([]Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, expected int64, fn func(*Invoice) error) (Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return Invoice{}, 0, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	if expected != 0 && expected != f.versions[id] {
		return Invoice{}, 0, store.ErrVersionConflict
	}
	if err := fn(&inv); err != nil {
		return Invoice{}, 0, err
	}
	f.invoices[id] = inv
	f.versions[id]++
	return inv, f.versions[id], nil
}

type fixedDefaults struct {
	rate decimal.Decimal
	days int
}

func (f fixedDefaults) InvoiceTaxRate(context.Context) (decimal.Decimal, error) { return f.rate, nil }
func (f fixedDefaults) DefaultDueDays(context.Context) (int, error) { return f.days, nil }

var testNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeRepo, *events.Manager) {
	t.Helper()
	repo := newFakeRepo()
	em := events.NewManager(zerolog.Nop())
	svc := NewService(repo, fixedDefaults{rate: d("0.08"), days: 30}, em, zerolog.Nop())
	svc.nowFn = func() time.Time { return testNow }
	return svc, repo, em
}

func sampleInput() CreateInput {
	return CreateInput{
		CustomerID: "cust-42",
		Items: []ItemInput{
			{Description: "Detailing", Quantity: d("1"), UnitPrice: d("250")},
			{Description: "Labor", Quantity: d("3"), UnitPrice: d("120")},
			{Description: "Wiper blades", Quantity: d("2"), UnitPrice: d("5")},
		},
		DueDate: "2026-05-10",
	}
}

func TestCreateInvoice(t *testing.T) {
	svc, _, em := newTestService(t)

	inv, version, err := svc.CreateInvoice(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, int64(1), version)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "669.60", inv.Total.StringFixed(2))
	assert.Equal(t, "0.08", inv.TaxRate.String())
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Regexp(t, `^INV-20260410-[0-9A-F]{8}$`, inv.Number)

	recent := em.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, events.InvoiceCreated, recent[0].Type)
}

func TestCreateInvoice_DefaultDueDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := sampleInput()
	in.DueDate = ""
	in.Number = "A-1001"
	inv, _, err := svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "A-1001", inv.Number)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), inv.DueDate)
}

func TestCreateInvoice_Validation(t *testing.T) {
	svc, repo, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing customer", func(in *CreateInput) { in.CustomerID = "" }},
		{"no items", func(in *CreateInput) { in.Items = nil }},
		{"zero quantity", func(in *CreateInput) { in.Items[0].Quantity = decimal.Zero }},
		{"negative price", func(in *CreateInput) { in.Items[1].UnitPrice = d("-1") }},
		{"blank description", func(in *CreateInput) { in.Items[2].Description = "" }},
		{"bad due date", func(in *CreateInput) { in.DueDate = "next tuesday" }},
		{"zero total", func(in *CreateInput) {
			in.Items = []ItemInput{{Description: "Courtesy wash", Quantity: d("1"), UnitPrice: decimal.Zero}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)

			_, _, err := svc.CreateInvoice(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, repo.invoices)
}

func TestEditInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, version, err := svc.CreateInvoice(ctx, sampleInput())
	require.NoError(t, err)

	notes := "customer supplied parts"
	edited, newVersion, err := svc.EditInvoice(ctx, inv.ID, EditInput{
		Items:           []ItemInput{{Description: "Labor", Quantity: d("2"), UnitPrice: d("100")}},
		DueDate:         "2026-06-01",
		Notes:           &notes,
		ExpectedVersion: version,
	})
	require.NoError(t, err)

	assert.Equal(t, version+1, newVersion)
	assert.Len(t, edited.Items, 1)
	assert.Equal(t, "200.00", edited.Subtotal.StringFixed(2))
	assert.Equal(t, "216.00", edited.Total.StringFixed(2))
	assert.Equal(t, notes, edited.Notes)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), edited.DueDate)

	// Stale version is rejected.
	_, _, err = svc.EditInvoice(ctx, inv.ID, EditInput{
		Items:           []ItemInput{{Description: "Labor", Quantity: d("1"), UnitPrice: d("100")}},
		ExpectedVersion: version,
	})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

func TestEditInvoice_OnlyDrafts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, _, err := svc.CreateInvoice(ctx, sampleInput())
	require.NoError(t, err)
	_, _, err = svc.SendInvoice(ctx, inv.ID, 0)
	require.NoError(t, err)

	_, _, err = svc.EditInvoice(ctx, inv.ID, EditInput{
		Items: []ItemInput{{Description: "Labor", Quantity: d("1"), UnitPrice: d("1")}},
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, _, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "669.60", current.Total.StringFixed(2))
}

func TestLifecycle(t *testing.T) {
	svc, _, em := newTestService(t)
	ctx := context.Background()

	inv, _, err := svc.CreateInvoice(ctx, sampleInput())
	require.NoError(t, err)

	sent, _, err := svc.SendInvoice(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	viewed, version, err := svc.MarkViewed(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusViewed, viewed.Status)

	again, againVersion, err := svc.MarkViewed(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusViewed, again.Status)
	assert.Equal(t, version, againVersion, "repeat view does not write")

	_, _, err = svc.SendInvoice(ctx, inv.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, _, err := svc.CancelInvoice(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, _, err = svc.CancelInvoice(ctx, inv.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	changes := 0
	for _, e := range em.Recent(0) {
		if e.Type == events.InvoiceStatusChanged {
			changes++
		}
	}
	assert.Equal(t, 3, changes)
}

func TestTransitions_PaidIsReconcilerOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	inv, _, err := svc.CreateInvoice(ctx, sampleInput())
	require.NoError(t, err)
	_, _, err = svc.SendInvoice(ctx, inv.ID, 0)
	require.NoError(t, err)

	paid := repo.invoices[inv.ID]
	require.NoError(t, paid.MarkPaid(testNow, "cash", testNow))
	repo.invoices[inv.ID] = paid

	_, _, err = svc.CancelInvoice(ctx, inv.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = svc.SendInvoice(ctx, inv.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	viewed, _, err := svc.MarkViewed(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, viewed.Status)
}

func TestGetInvoice_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.GetInvoice(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestListInvoices(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.CreateInvoice(ctx, sampleInput())
	require.NoError(t, err)

	svc.nowFn = func() time.Time { return testNow.Add(time.Hour) }
	other := sampleInput()
	other.CustomerID = "cust-7"
	other.DueDate = "2026-04-01"
	second, _, err := svc.CreateInvoice(ctx, other)
	require.NoError(t, err)
	_, _, err = svc.SendInvoice(ctx, second.ID, 0)
	require.NoError(t, err)

	all, err := svc.ListInvoices(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	byCustomer, err := svc.ListInvoices(ctx, Filter{CustomerID: "cust-42"})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, first.ID, byCustomer[0].ID)

	sent, err := svc.ListInvoices(ctx, Filter{Statuses: []Status{StatusSent}})
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	open, err := svc.ListInvoices(ctx, Filter{Statuses: []Status{StatusDraft, StatusSent}})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	overdue, err := svc.ListInvoices(ctx, Filter{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, second.ID, overdue[0].ID)
}

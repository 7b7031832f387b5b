package di

import (
	"context"
	"testing"

	"github.com/aristath/dealerledger/internal/config"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:               t.TempDir(),
		Port:                  8010,
		DefaultTaxRate:        "0.1",
		DefaultDueDays:        30,
		OverdueSweepSchedule:  "0 0 7 * * *",
		WALCheckpointSchedule: "0 */30 * * * *",
		Archive:               &config.ArchiveConfig{},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()
	sched := scheduler.New(log)

	container, jobs, err := Wire(cfg, log, sched)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.ConfigDB)
	assert.Nil(t, container.RedisClient)
	assert.NotNil(t, container.Calculator)
	assert.NotNil(t, container.InvoiceService)
	assert.NotNil(t, container.Reconciler)
	assert.NotNil(t, container.SettingsService)
	assert.Nil(t, container.Archiver)

	assert.NotNil(t, jobs.OverdueSweep)
	assert.NotNil(t, jobs.WALCheckpoint)
	assert.Nil(t, jobs.ExportArchive)

	require.NoError(t, sched.RunNow(jobs.WALCheckpoint))
	require.NoError(t, sched.RunNow(jobs.OverdueSweep))
}

func TestWire_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	container, _, err := Wire(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	ctx := context.Background()

	// Tax rate comes from the environment default until a setting is stored.
	rate, err := container.SettingsService.InvoiceTaxRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.1")))

	inv, _, err := container.InvoiceService.CreateInvoice(ctx, invoices.CreateInput{
		CustomerID: "cust-7",
		Items: []invoices.ItemInput{
			{Description: "Brake pads", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("45.50")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.1", inv.Total.String())

	_, _, err = container.InvoiceService.SendInvoice(ctx, inv.ID, 0)
	require.NoError(t, err)

	_, balance, err := container.Reconciler.RecordPayment(ctx, ledger.RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    decimal.RequireFromString("100.10"),
		Method:    ledger.MethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, invoices.StatusPaid, balance.Status)
	assert.True(t, balance.RemainingBalance.IsZero())

	// Survives a reopen of the same data directory.
	require.NoError(t, container.Close())
	reopened, _, err := Wire(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, _, err := reopened.InvoiceService.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoices.StatusPaid, got.Status)
}

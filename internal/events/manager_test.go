package events

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(buf *bytes.Buffer) *Manager {
	m := NewManager(zerolog.New(buf))
	m.nowFn = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestEmit_LogsAndRecordsEvent(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)

	m.Emit("ledger", &InvoicePaidData{
		InvoiceID:     "inv-1",
		TotalPaid:     "669.60",
		PaidDate:      "2026-10-18",
		PaymentMethod: "cash",
	})

	assert.Contains(t, buf.String(), `"event_type":"INVOICE_PAID"`)
	assert.Contains(t, buf.String(), `"invoice_id":"inv-1"`)

	recent := m.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, InvoicePaid, recent[0].Type)
	assert.Equal(t, "ledger", recent[0].Module)
	assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), recent[0].Timestamp)
}

func TestRecent_NewestFirstAndBounded(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)
	m.historySize = 3

	for _, id := range []string{"a", "b", "c", "d"} {
		m.Emit("invoices", &InvoiceCreatedData{InvoiceID: id})
	}

	recent := m.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Data.(*InvoiceCreatedData).InvoiceID)
	assert.Equal(t, "b", recent[2].Data.(*InvoiceCreatedData).InvoiceID)

	assert.Len(t, m.Recent(2), 2)
}

func TestEmitError(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)

	m.Emit("ledger", &PaymentRecordedData{PaymentID: "p-1"})
	m.EmitError("ledger", errors.New("store unavailable"), map[string]interface{}{"invoice_id": "inv-1"})

	recent := m.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, ErrorOccurred, recent[0].Type)
	assert.Equal(t, PaymentRecorded, recent[1].Type)
	data, ok := recent[0].Data.(*ErrorData)
	require.True(t, ok)
	assert.Equal(t, "inv-1", data.Context["invoice_id"])
	assert.Contains(t, buf.String(), "store unavailable")
}

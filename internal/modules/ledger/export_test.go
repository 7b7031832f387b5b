package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePaymentsCSV(t *testing.T) {
	payments := []Payment{
		{
			ID:            "p-1",
			InvoiceID:     "inv-1",
			Amount:        dec("400"),
			Method:        MethodCheck,
			Status:        PaymentCompleted,
			ProcessedDate: time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
			TransactionID: "chk-1182",
			Notes:         "deposit, first half",
		},
		{
			ID:            "p-2",
			InvoiceID:     "inv-1",
			Amount:        dec("269.6"),
			Method:        MethodCreditCard,
			Status:        PaymentPending,
			ProcessedDate: time.Date(2026, 4, 13, 15, 4, 5, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	n, err := WritePaymentsCSV(&buf, payments)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "invoice_id", "amount", "method", "status", "processed_date", "transaction_id", "notes"}, records[0])
	assert.Equal(t, []string{"p-1", "inv-1", "400.00", "check", "completed", "2026-04-12T00:00:00Z", "chk-1182", "deposit, first half"}, records[1])
	assert.Equal(t, "269.60", records[2][2])
	assert.Equal(t, "", records[2][6])
}

func TestWritePaymentsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WritePaymentsCSV(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "id,invoice_id,amount,method,status,processed_date,transaction_id,notes\n", buf.String())
}

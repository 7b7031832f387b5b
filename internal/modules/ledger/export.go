package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// PaymentsHeader is the column order of payment exports.
var PaymentsHeader = []string{
	"id",
	"invoice_id",
	"amount",
	"method",
	"status",
	"processed_date",
	"transaction_id",
	"notes",
}

// WritePaymentsCSV writes payments as comma-separated values with a header.
// It returns the number of payment rows written.
func WritePaymentsCSV(w io.Writer, payments []Payment) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(PaymentsHeader); err != nil {
		return 0, fmt.Errorf("failed to write payments header: %w", err)
	}

	for i, p := range payments {
		record := []string{
			p.ID,
			p.InvoiceID,
			p.Amount.StringFixed(2),
			string(p.Method),
			string(p.Status),
			p.ProcessedDate.UTC().Format(time.RFC3339),
			p.TransactionID,
			p.Notes,
		}
		if err := cw.Write(record); err != nil {
			return i, fmt.Errorf("failed to write payment %s: %w", p.ID, err)
		}
	}

	cw.Flush()
	return len(payments), cw.Error()
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// DocumentSource lists invoices with their derived balances.
type DocumentSource interface {
	Documents(ctx context.Context) ([]ledger.Document, []ledger.Balance, error)
}

// OverdueSweepJob reports invoices that are past due and still open.
type OverdueSweepJob struct {
	source  DocumentSource
	events  *events.Manager
	timeout time.Duration
	log     zerolog.Logger
}

// NewOverdueSweepJob creates the overdue sweep.
func NewOverdueSweepJob(source DocumentSource, eventManager *events.Manager, log zerolog.Logger) *OverdueSweepJob {
	return &OverdueSweepJob{
		source:  source,
		events:  eventManager,
		timeout: 2 * time.Minute,
		log:     log.With().Str("job", "overdue_sweep").Logger(),
	}
}

// Name returns the job name
func (j *OverdueSweepJob) Name() string {
	return "overdue_sweep"
}

// Run executes the sweep
func (j *OverdueSweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	docs, balances, err := j.source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list invoices: %w", err)
	}

	overdue := 0
	for i, balance := range balances {
		if !balance.Overdue {
			continue
		}
		overdue++
		inv := docs[i].Invoice

		j.log.Warn().
			Str("invoice_id", inv.ID).
			Str("number", inv.Number).
			Int("days_overdue", balance.DaysOverdue).
			Str("remaining_balance", balance.RemainingBalance.StringFixed(2)).
			Msg("Invoice overdue")

		if j.events != nil {
			j.events.Emit("scheduler", &events.InvoiceOverdueData{
				InvoiceID:        inv.ID,
				Number:           inv.Number,
				DueDate:          inv.DueDate.Format("2006-01-02"),
				RemainingBalance: balance.RemainingBalance.StringFixed(2),
				DaysOverdue:      balance.DaysOverdue,
			})
		}
	}

	j.log.Info().
		Int("invoices", len(docs)).
		Int("overdue", overdue).
		Msg("Overdue sweep completed")

	return nil
}

package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/reliability"
	"github.com/rs/zerolog"
)

// PaymentSource returns the full payment history.
type PaymentSource interface {
	AllPayments(ctx context.Context) ([]ledger.Payment, error)
}

// ArchiveTarget stores rendered exports.
type ArchiveTarget interface {
	ArchiveKey(kind string, ts time.Time) string
	Upload(ctx context.Context, key string, body []byte, contentType string) (reliability.ArchiveResult, error)
}

// ExportArchiveJob uploads the payment history CSV to object storage.
type ExportArchiveJob struct {
	payments PaymentSource
	target   ArchiveTarget
	bucket   string
	events   *events.Manager
	nowFn    func() time.Time
	timeout  time.Duration
	log      zerolog.Logger
}

// NewExportArchiveJob creates the export archive job.
func NewExportArchiveJob(
	payments PaymentSource,
	target ArchiveTarget,
	bucket string,
	eventManager *events.Manager,
	log zerolog.Logger,
) *ExportArchiveJob {
	return &ExportArchiveJob{
		payments: payments,
		target:   target,
		bucket:   bucket,
		events:   eventManager,
		nowFn:    time.Now,
		timeout:  5 * time.Minute,
		log:      log.With().Str("job", "export_archive").Logger(),
	}
}

// Name returns the job name
func (j *ExportArchiveJob) Name() string {
	return "export_archive"
}

// Run executes the export
func (j *ExportArchiveJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	payments, err := j.payments.AllPayments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}

	var buf bytes.Buffer
	rows, err := ledger.WritePaymentsCSV(&buf, payments)
	if err != nil {
		return fmt.Errorf("failed to render payments csv: %w", err)
	}

	key := j.target.ArchiveKey("payments", j.nowFn())
	result, err := j.target.Upload(ctx, key, buf.Bytes(), "text/csv")
	if err != nil {
		if j.events != nil {
			j.events.EmitError("scheduler", err, map[string]interface{}{"job": j.Name(), "key": key})
		}
		return err
	}

	if j.events != nil {
		j.events.Emit("scheduler", &events.ExportArchivedData{
			Bucket:    j.bucket,
			Key:       result.Key,
			Rows:      rows,
			SizeBytes: int(result.SizeBytes),
		})
	}

	j.log.Info().
		Str("key", result.Key).
		Int("rows", rows).
		Msg("Payment history archived")

	return nil
}

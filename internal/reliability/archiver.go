// Package reliability ships ledger exports off-box.
package reliability

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is the subset of the S3 transfer manager the archiver needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ArchiveConfig describes the target bucket.
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// ArchiveResult describes one uploaded object.
type ArchiveResult struct {
	Key       string    `json:"key"`
	Location  string    `json:"location"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// Archiver uploads export files to S3-compatible storage.
type Archiver struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Archiver builds an archiver backed by the AWS SDK. Static
// credentials are used when given, otherwise the default chain applies.
func NewS3Archiver(ctx context.Context, cfg ArchiveConfig, log zerolog.Logger) (*Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiver(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewArchiver wraps an existing uploader.
func NewArchiver(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Archiver {
	return &Archiver{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "archiver").Logger(),
	}
}

// ArchiveKey names an export taken at ts, e.g.
// dealerledger/payments/2026/04/payments-2026-04-10-073000.csv
func (a *Archiver) ArchiveKey(kind string, ts time.Time) string {
	ts = ts.UTC()
	name := fmt.Sprintf("%s-%s.csv", kind, ts.Format("2006-01-02-150405"))
	return strings.TrimPrefix(path.Join(a.prefix, kind, ts.Format("2006"), ts.Format("01"), name), "/")
}

// Upload stores body under key.
func (a *Archiver) Upload(ctx context.Context, key string, body []byte, contentType string) (ArchiveResult, error) {
	startTime := time.Now()
	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	out, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"sha256": checksum},
	})
	if err != nil {
		a.log.Error().Err(err).Str("key", key).Msg("Archive upload failed")
		return ArchiveResult{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	result := ArchiveResult{
		Key:       key,
		SizeBytes: int64(len(body)),
		Checksum:  checksum,
		Timestamp: startTime.UTC(),
	}
	if out != nil {
		result.Location = out.Location
	}

	a.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int64("size_bytes", result.SizeBytes).
		Msg("Archive uploaded")

	return result, nil
}

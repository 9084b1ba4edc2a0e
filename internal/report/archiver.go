// Package report archives enrichment run reports to object storage.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/logging"
)

// DefaultPrefix is the key prefix of archived run reports.
const DefaultPrefix = "enrichment-runs"

// ObjectStore is the subset of config.S3Config the archiver needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GeneratePresignedURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error)
}

// S3Archiver writes each run report as one JSON object.
type S3Archiver struct {
	store  ObjectStore
	prefix string
}

// NewS3Archiver creates an archiver writing under prefix. An empty prefix
// uses DefaultPrefix.
func NewS3Archiver(store ObjectStore, prefix string) *S3Archiver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &S3Archiver{store: store, prefix: prefix}
}

// Key returns the object key of a run.
func (a *S3Archiver) Key(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Archive implements enrichment.ReportArchiver.
func (a *S3Archiver) Archive(ctx context.Context, report *enrichment.RunReport) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("run report has no run id")
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run report: %w", err)
	}
	key := a.Key(report.RunID)
	if err := a.store.PutObject(ctx, key, "application/json", body); err != nil {
		return "", err
	}
	logging.Ctx(ctx).Info().
		Str("run_id", report.RunID).
		Str("key", key).
		Msg("archived enrichment run report")
	return key, nil
}

// Link returns a time-limited download URL for an archived report.
func (a *S3Archiver) Link(ctx context.Context, runID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return a.store.GeneratePresignedURL(ctx, a.Key(runID), ttl)
}

// Package archive writes JSON snapshots of closed periods to Google Cloud
// Storage so the back office keeps an export independent of the closure
// store. Archival is best-effort: by the time a snapshot is written the
// closure is already durable.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dmolina/cash-closure/internal/domain"
)

// Archiver uploads closure snapshots into one bucket.
// It assumes Application Default Credentials are configured.
type Archiver struct {
	bucket string
}

// NewArchiver creates an archiver targeting the given bucket.
func NewArchiver(bucket string) *Archiver {
	return &Archiver{bucket: bucket}
}

// ArchiveClosure writes the closure as a JSON object and returns its GCS URI.
func (a *Archiver) ArchiveClosure(ctx context.Context, c *domain.CashClosure) (string, error) {
	objectName := ObjectName(c)

	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding closure %s: %w", c.ID, err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

// ObjectName builds the dated object path for a closure snapshot,
// e.g. "closures/2026/03/01/<id>.json". The date comes from the period end so
// snapshots group by accounting day.
func ObjectName(c *domain.CashClosure) string {
	return fmt.Sprintf("closures/%s/%s.json", c.PeriodEnd.UTC().Format("2006/01/02"), c.ID)
}

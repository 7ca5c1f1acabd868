package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// ActivityArchiveStore provides the read access the archiver needs. The
// Postgres ActivityStore satisfies it implicitly.
type ActivityArchiveStore interface {
	// ListBefore returns all activities with a timestamp strictly before the
	// given cutoff time.
	ListBefore(ctx context.Context, before time.Time) ([]domain.Transaction, error)
}

// ArchiveImpl implements domain.Archiver by querying the activity store for
// old rows, serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here; that is a separate, explicit step to be executed after the
// archive has been verified.
type ArchiveImpl struct {
	writer     domain.BlobWriter
	reader     domain.BlobReader
	activities ActivityArchiveStore
	audit      domain.AuditStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, activities ActivityArchiveStore, audit domain.AuditStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:     writer,
		reader:     reader,
		activities: activities,
		audit:      audit,
	}
}

// ArchiveActivities queries all activities before the cutoff, serializes
// them to JSONL, and uploads the file to S3 at
// archive/activities/YYYY-MM.jsonl. An existing object for the same month is
// read back and the new rows are appended to it, so repeated runs within one
// month never lose earlier batches. The archival event is recorded in the
// audit log and the count of newly archived rows is returned.
func (a *ArchiveImpl) ArchiveActivities(ctx context.Context, before time.Time) (int64, error) {
	txs, err := a.activities.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive activities query: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(txs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive activities marshal: %w", err)
	}

	path := archivePath("activities", before)

	existing, err := a.readExisting(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive activities read existing: %w", err)
	}
	if len(existing) > 0 {
		buf = append(existing, buf...)
	}

	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive activities upload: %w", err)
	}

	count := int64(len(txs))

	if err := a.audit.Log(ctx, "archive.activities", map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive activities audit log: %w", err)
	}

	return count, nil
}

// readExisting returns the current contents of the archive object at path,
// or nil when no object exists yet.
func (a *ArchiveImpl) readExisting(ctx context.Context, path string) ([]byte, error) {
	ok, err := a.reader.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rc, err := a.reader.Get(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/activities/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)

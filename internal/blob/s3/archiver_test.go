package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = b
	return nil
}

func (f *fakeBlobStore) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

func (f *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := f.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, b := range f.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(b))})
		}
	}
	return infos, nil
}

func (f *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

type fakeArchiveSource struct {
	rows []domain.Transaction
	err  error
}

func (f *fakeArchiveSource) ListBefore(_ context.Context, _ time.Time) ([]domain.Transaction, error) {
	return f.rows, f.err
}

type fakeAuditLog struct {
	events []string
	detail map[string]any
}

func (f *fakeAuditLog) Log(_ context.Context, event string, detail map[string]any) error {
	f.events = append(f.events, event)
	f.detail = detail
	return nil
}

func (f *fakeAuditLog) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func archiveRows(n int) []domain.Transaction {
	rows := make([]domain.Transaction, n)
	for i := range rows {
		rows[i] = domain.Transaction{
			ID:   "tx-" + string(rune('a'+i)),
			Type: domain.ActionSwap,
		}
	}
	return rows
}

func TestArchiveActivities_UploadsJSONL(t *testing.T) {
	blobs := newFakeBlobStore()
	audit := &fakeAuditLog{}
	arch := NewArchiver(blobs, blobs, &fakeArchiveSource{rows: archiveRows(3)}, audit)

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	count, err := arch.ArchiveActivities(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	body, ok := blobs.objects["archive/activities/2026-08.jsonl"]
	require.True(t, ok)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"tx-a"`)

	require.Equal(t, []string{"archive.activities"}, audit.events)
	assert.Equal(t, int64(3), audit.detail["count"])
}

func TestArchiveActivities_AppendsToSameMonth(t *testing.T) {
	blobs := newFakeBlobStore()
	source := &fakeArchiveSource{rows: archiveRows(2)}
	arch := NewArchiver(blobs, blobs, source, &fakeAuditLog{})

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := arch.ArchiveActivities(context.Background(), cutoff)
	require.NoError(t, err)

	source.rows = archiveRows(3)
	count, err := arch.ArchiveActivities(context.Background(), cutoff.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	body := string(blobs.objects["archive/activities/2026-08.jsonl"])
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	assert.Len(t, lines, 5)
}

func TestArchiveActivities_NoRowsSkipsUpload(t *testing.T) {
	blobs := newFakeBlobStore()
	arch := NewArchiver(blobs, blobs, &fakeArchiveSource{}, &fakeAuditLog{})

	count, err := arch.ArchiveActivities(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, blobs.objects)
}

func TestArchiveActivities_UploadErrorPropagates(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.putErr = errors.New("bucket unavailable")
	arch := NewArchiver(blobs, blobs, &fakeArchiveSource{rows: archiveRows(1)}, &fakeAuditLog{})

	_, err := arch.ArchiveActivities(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload")
}

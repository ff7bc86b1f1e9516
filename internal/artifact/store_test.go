package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"runbox/internal/common/storage"
)

type memObject struct {
	data        []byte
	contentType string
}

type memStorage struct {
	objects map[string]memObject
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string]memObject)}
}

func (m *memStorage) PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if int64(len(data)) != sizeBytes {
		return fmt.Errorf("size mismatch: declared %d, read %d", sizeBytes, len(data))
	}
	m.objects[bucket+"/"+objectKey] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *memStorage) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	obj, ok := m.objects[bucket+"/"+objectKey]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", objectKey)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *memStorage) StatObject(ctx context.Context, bucket, objectKey string) (storage.ObjectStat, error) {
	obj, ok := m.objects[bucket+"/"+objectKey]
	if !ok {
		return storage.ObjectStat{}, fmt.Errorf("object not found: %s", objectKey)
	}
	return storage.ObjectStat{SizeBytes: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func TestArchiveAndLoad(t *testing.T) {
	backend := newMemStorage()
	store, err := NewStore(backend, "runbox")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	rec := Record{
		ExecutionID: "exec-1",
		Stdout:      "4\n",
		Stderr:      "",
		ArchivedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	key, err := store.Archive(ctx, rec)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if key != "executions/exec-1.json.zst" {
		t.Fatalf("unexpected object key %q", key)
	}

	got, err := store.Load(ctx, "exec-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Stdout != rec.Stdout || got.ExecutionID != rec.ExecutionID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.ArchivedAt.Equal(rec.ArchivedAt) {
		t.Fatalf("archived_at mismatch: %v", got.ArchivedAt)
	}
}

func TestArchiveCompresses(t *testing.T) {
	backend := newMemStorage()
	store, err := NewStore(backend, "runbox")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	big := make([]byte, 16<<10)
	for i := range big {
		big[i] = 'a'
	}
	key, err := store.Archive(context.Background(), Record{ExecutionID: "exec-big", Stdout: string(big)})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	stat, err := backend.StatObject(context.Background(), "runbox", key)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if stat.SizeBytes >= int64(len(big)) {
		t.Fatalf("stored object should be compressed, got %d bytes", stat.SizeBytes)
	}
	if stat.ContentType != "application/zstd" {
		t.Fatalf("unexpected content type %q", stat.ContentType)
	}
}

func TestArchiveRequiresExecutionID(t *testing.T) {
	store, err := NewStore(newMemStorage(), "runbox")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Archive(context.Background(), Record{}); err == nil {
		t.Fatalf("expected error for missing execution id")
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var store *Store
	key, err := store.Archive(context.Background(), Record{ExecutionID: "exec-1"})
	if err != nil {
		t.Fatalf("nil store archive should be a no-op: %v", err)
	}
	if key != "" {
		t.Fatalf("nil store should not produce a key, got %q", key)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(nil, "runbox"); err == nil {
		t.Fatalf("expected error for nil backend")
	}
	if _, err := NewStore(newMemStorage(), ""); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}

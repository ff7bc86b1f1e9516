// Package artifact archives run output to object storage, compressed.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"runbox/internal/common/storage"

	"github.com/klauspost/compress/zstd"
)

const contentType = "application/zstd"

// Record is the archived payload for one execution.
type Record struct {
	ExecutionID string    `json:"execution_id"`
	Stdout      string    `json:"stdout"`
	Stderr      string    `json:"stderr"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// Store writes and reads compressed run artifacts. A nil *Store is a
// no-op so archival stays optional.
type Store struct {
	backend storage.ObjectStorage
	bucket  string
}

func NewStore(backend storage.ObjectStorage, bucket string) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("object storage backend is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Store{backend: backend, bucket: bucket}, nil
}

// Archive compresses and stores the record. Returns the object key.
func (s *Store) Archive(ctx context.Context, rec Record) (string, error) {
	if s == nil {
		return "", nil
	}
	if rec.ExecutionID == "" {
		return "", fmt.Errorf("execution id is required")
	}
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now()
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return "", fmt.Errorf("compress artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finish zstd stream: %w", err)
	}

	key := objectKey(rec.ExecutionID)
	if err := s.backend.PutObject(ctx, s.bucket, key, &buf, int64(buf.Len()), contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Load fetches and decompresses an archived record.
func (s *Store) Load(ctx context.Context, executionID string) (*Record, error) {
	if s == nil {
		return nil, fmt.Errorf("artifact store is not configured")
	}
	obj, err := s.backend.GetObject(ctx, s.bucket, objectKey(executionID))
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	dec, err := zstd.NewReader(obj)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &rec, nil
}

func objectKey(executionID string) string {
	return fmt.Sprintf("executions/%s.json.zst", executionID)
}

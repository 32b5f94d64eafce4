package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore is the narrow object-storage contract the pipeline consumes:
// put/get/delete by opaque path. The production deployment fronts a bucket;
// this package ships the local filesystem implementation used everywhere
// else.
type BlobStore interface {
	Put(ctx context.Context, tenantID uuid.UUID, fileName string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// LocalStore writes blobs under a root directory, content-addressed by
// sha256 so re-uploads of the same bytes share one blob.
type LocalStore struct {
	Root   string
	Logger *slog.Logger
}

func NewLocalStore(root string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{Root: root, Logger: logger}
}

func (s *LocalStore) Put(_ context.Context, tenantID uuid.UUID, fileName string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	rel := filepath.Join(tenantID.String(), hex.EncodeToString(sum[:])+filepath.Ext(fileName))
	abs := filepath.Join(s.Root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		s.Logger.Error("blob write failed", "path", rel, "error", err)
		return "", fmt.Errorf("write blob: %w", err)
	}
	s.Logger.Debug("blob stored", "path", rel, "bytes", len(data))
	return rel, nil
}

func (s *LocalStore) Get(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(s.Root, path))
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return b, nil
}

func (s *LocalStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(filepath.Join(s.Root, path)); err != nil && !os.IsNotExist(err) {
		s.Logger.Warn("blob delete failed", "path", path, "error", err)
		return err
	}
	return nil
}

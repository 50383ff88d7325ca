package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"research-backend/internal/config"
)

// FileStorage persists uploaded blobs. A blob is addressed by its owner and
// file id only; see ObjectKey.
type FileStorage interface {
	Save(ctx context.Context, owner, fileID string, reader io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New returns the FileStorage selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (FileStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath), nil
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ObjectKey is the storage key of a file's blob. It is derived from the
// record's owner and id, never from caller-writable fields, so a record can
// only ever reach its own blob.
func ObjectKey(owner, fileID string) string {
	return path.Join(segment(owner), segment(fileID))
}

func segment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

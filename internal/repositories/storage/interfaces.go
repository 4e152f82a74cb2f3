package storage

import (
	"context"
	"io"
)

// BlobStore keeps document bytes. Refs are opaque to callers.
type BlobStore interface {
	Put(ctx context.Context, ref string, r io.Reader) (int64, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

package filerepo

import (
	"context"
	"docauth/internal/models"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const pkg = "fileRepo/"

type repository struct {
	root string
}

func NewRepository(root string) *repository {
	return &repository{root: root}
}

// Put writes r under ref. The file is written to a temporary name first and
// renamed so that readers never observe a partial blob.
func (r *repository) Put(ctx context.Context, ref string, src io.Reader) (int64, error) {
	op := pkg + "Put"

	path, err := r.path(ref)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *repository) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	op := pkg + "Get"

	path, err := r.path(ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, nil
}

func (r *repository) Delete(ctx context.Context, ref string) error {
	op := pkg + "Delete"

	path, err := r.path(ref)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, models.ErrDocumentNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *repository) path(ref string) (string, error) {
	if ref == "" || !filepath.IsLocal(ref) {
		return "", fmt.Errorf("ref %q: %w", ref, models.ErrInvalidParams)
	}
	return filepath.Join(r.root, ref), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

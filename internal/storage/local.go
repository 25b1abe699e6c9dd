package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/services"
)

// LocalStore stores bytes under a directory. Pointers look like file://2025/03/<uuid>-name.pdf
// and are always relative to the root.
type LocalStore struct {
	root   string
	logger *slog.Logger
}

// NewLocalStore creates a disk-backed BlobStore rooted at dir
func NewLocalStore(dir string, logger *slog.Logger) (services.BlobStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{root: root, logger: logger}, nil
}

// Store writes r to a temp file and renames it into place
func (s *LocalStore) Store(ctx context.Context, r io.Reader, contentType, filename string) (string, int64, error) {
	key := objectKey(filename, time.Now().UTC())
	dest := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after a successful rename

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("commit blob: %w", err)
	}

	s.logger.Debug("blob stored", "key", key, "size", n)
	return SchemeFile + "://" + key, n, nil
}

// Fetch opens the file behind pointer
func (s *LocalStore) Fetch(ctx context.Context, pointer string) (io.ReadCloser, error) {
	path, err := s.resolve(pointer)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", pointer, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the file behind pointer
func (s *LocalStore) Delete(ctx context.Context, pointer string) error {
	path, err := s.resolve(pointer)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// resolve maps a pointer onto a path inside root, rejecting traversal
func (s *LocalStore) resolve(pointer string) (string, error) {
	key, err := splitPointer(pointer, SchemeFile)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: pointer escapes blob root", domain.ErrValidation)
	}
	return path, nil
}

// ctxReader stops a copy once ctx is done
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

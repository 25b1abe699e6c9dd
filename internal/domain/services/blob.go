package services

import (
	"context"
	"io"
)

// BlobStore persists document bytes and hands back an opaque pointer (URI).
// Documents and versions only ever store the pointer.
type BlobStore interface {
	// Store writes r and returns the pointer plus the number of bytes written
	Store(ctx context.Context, r io.Reader, contentType, filename string) (pointer string, size int64, err error)

	// Fetch opens the bytes behind pointer. Callers must close the reader.
	Fetch(ctx context.Context, pointer string) (io.ReadCloser, error)

	// Delete removes the bytes behind pointer. Deleting a missing pointer is not an error.
	Delete(ctx context.Context, pointer string) error
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"campusdocs/internal/domain"
)

// MemoryStore keeps bytes in a map. Used by tests and STORAGE_DRIVER=memory setups.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory BlobStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

// Store reads r fully into memory
func (s *MemoryStore) Store(ctx context.Context, r io.Reader, contentType, filename string) (string, int64, error) {
	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return "", 0, fmt.Errorf("read blob: %w", err)
	}
	pointer := SchemeMemory + "://" + objectKey(filename, time.Now().UTC())

	s.mu.Lock()
	s.blobs[pointer] = data
	s.mu.Unlock()
	return pointer, int64(len(data)), nil
}

// Fetch returns a reader over a copy of the stored bytes
func (s *MemoryStore) Fetch(ctx context.Context, pointer string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.blobs[pointer]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", pointer, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes pointer
func (s *MemoryStore) Delete(ctx context.Context, pointer string) error {
	s.mu.Lock()
	delete(s.blobs, pointer)
	s.mu.Unlock()
	return nil
}

// Has reports whether pointer is stored
func (s *MemoryStore) Has(pointer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[pointer]
	return ok
}

// Len returns the number of stored blobs
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

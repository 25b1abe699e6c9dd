package storage

import (
	"context"
	"io"
	"time"

	"campusdocs/internal/domain/services"
	"campusdocs/internal/metrics"
)

// Instrumented records Prometheus metrics around another BlobStore
type Instrumented struct {
	next    services.BlobStore
	metrics *metrics.Metrics
}

// NewInstrumented wraps next with metrics
func NewInstrumented(next services.BlobStore, m *metrics.Metrics) services.BlobStore {
	return &Instrumented{next: next, metrics: m}
}

func (s *Instrumented) Store(ctx context.Context, r io.Reader, contentType, filename string) (string, int64, error) {
	start := time.Now()
	pointer, n, err := s.next.Store(ctx, r, contentType, filename)
	s.metrics.RecordBlob("store", status(err), time.Since(start).Seconds())
	if err == nil {
		s.metrics.RecordStored(n)
	}
	return pointer, n, err
}

func (s *Instrumented) Fetch(ctx context.Context, pointer string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.next.Fetch(ctx, pointer)
	s.metrics.RecordBlob("fetch", status(err), time.Since(start).Seconds())
	return rc, err
}

func (s *Instrumented) Delete(ctx context.Context, pointer string) error {
	start := time.Now()
	err := s.next.Delete(ctx, pointer)
	s.metrics.RecordBlob("delete", status(err), time.Since(start).Seconds())
	return err
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

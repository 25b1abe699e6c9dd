// Package storage implements the byte-storage collaborator: documents only
// keep the pointer string these stores return.
package storage

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Pointer schemes
const (
	SchemeS3     = "s3"
	SchemeFile   = "file"
	SchemeMemory = "mem"
)

// objectKey builds a collision-free, URL-safe key that keeps a readable file name:
// 2025/03/6f1c...-annual-report.pdf
func objectKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%04d/%02d/%s-%s%s", now.Year(), now.Month(), uuid.NewString(), base, ext)
}

// splitPointer returns the key of pointer when it uses scheme
func splitPointer(pointer, scheme string) (string, error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(pointer, prefix) {
		return "", fmt.Errorf("pointer %q is not a %s pointer", pointer, scheme)
	}
	key := strings.TrimPrefix(pointer, prefix)
	if key == "" {
		return "", fmt.Errorf("pointer %q has no key", pointer)
	}
	return key, nil
}

// countingReader counts bytes read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveWriter streams a zip archive to an io.Writer, one entry at a time.
// Nothing is buffered beyond the current entry's compressor state.
type ArchiveWriter struct {
	zw      *zip.Writer
	entries int
}

// NewArchiveWriter starts an archive on w
func NewArchiveWriter(w io.Writer) *ArchiveWriter {
	return &ArchiveWriter{zw: zip.NewWriter(w)}
}

// AddEntry copies r into a new deflated entry named name
func (a *ArchiveWriter) AddEntry(name string, modified time.Time, r io.Reader) (int64, error) {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := a.zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("create archive entry %s: %w", name, err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		return n, fmt.Errorf("write archive entry %s: %w", name, err)
	}
	a.entries++
	return n, nil
}

// Entries returns how many entries were written
func (a *ArchiveWriter) Entries() int {
	return a.entries
}

// Close writes the central directory. It does not close the underlying writer.
func (a *ArchiveWriter) Close() error {
	return a.zw.Close()
}

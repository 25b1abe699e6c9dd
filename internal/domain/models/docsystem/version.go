package docsystem

import "time"

// DocumentVersion is an immutable snapshot of a file's payload pointer.
// Version numbers start at 1 and increase by exactly one per document.
type DocumentVersion struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Version    int       `json:"version" db:"version"`
	Link       string    `json:"link" db:"link"`
	Extension  *string   `json:"extension,omitempty" db:"extension"`
	MimeType   *string   `json:"mime_type,omitempty" db:"mime_type"`
	SizeBytes  *int64    `json:"size_bytes,omitempty" db:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Payload returns the payload pointer captured by this version
func (v *DocumentVersion) Payload() Payload {
	return Payload{
		Link:      v.Link,
		Extension: v.Extension,
		MimeType:  v.MimeType,
		SizeBytes: v.SizeBytes,
	}
}

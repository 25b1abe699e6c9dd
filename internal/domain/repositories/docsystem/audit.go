package docsystem

import (
	"context"

	"campusdocs/internal/domain/models/docsystem"
)

// AuditRepository is append-only: there is no update or delete of a single entry.
type AuditRepository interface {
	// Append inserts an entry. When keep > 0 the oldest entries beyond keep are
	// trimmed in the same write.
	Append(ctx context.Context, entry *docsystem.AuditLogEntry, keep int) error

	// ListByDocument returns the newest entries for a document
	ListByDocument(ctx context.Context, documentID string, limit int) ([]docsystem.AuditLogEntry, error)
}

package docsystem

import (
	"context"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// AuditLogger appends to the audit trail. There is no update or delete.
type AuditLogger interface {
	// Append records an entry. Failures are logged and counted, never returned.
	Append(ctx context.Context, entry *docsystem.AuditLogEntry)

	// ListForDocument returns the newest entries for a document.
	// Malformed ids are reported as not found.
	ListForDocument(ctx context.Context, actor models.Identity, documentID string, limit int) ([]docsystem.AuditLogEntry, error)
}

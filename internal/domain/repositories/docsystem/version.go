package docsystem

import (
	"context"

	"campusdocs/internal/domain/models/docsystem"
)

// VersionRepository defines data access operations for document versions.
// Versions are never updated.
type VersionRepository interface {
	// Create inserts a version and sets its generated ID
	Create(ctx context.Context, v *docsystem.DocumentVersion) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*docsystem.DocumentVersion, error)

	// ListByDocument returns all versions of a document, newest first
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)

	// MaxVersion returns the highest version number of a document (0 if none)
	MaxVersion(ctx context.Context, documentID string) (int, error)

	// DeleteByDocument removes every version of a document (document deletion only)
	DeleteByDocument(ctx context.Context, documentID string) error
}

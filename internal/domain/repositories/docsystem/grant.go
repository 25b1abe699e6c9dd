package docsystem

import (
	"context"

	"campusdocs/internal/domain/models/docsystem"
)

// GrantRepository defines data access operations for explicit access grants
type GrantRepository interface {
	// CreateIfAbsent inserts the grant unless (document_id, user_id, user_type) already exists.
	// Returns the stored grant and whether a row was inserted.
	CreateIfAbsent(ctx context.Context, g *docsystem.AccessGrant) (*docsystem.AccessGrant, bool, error)

	// Get retrieves the grant for a tuple
	Get(ctx context.Context, documentID, userID, userType string) (*docsystem.AccessGrant, error)

	// ListByDocument lists grants on a document
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.AccessGrant, error)

	// ListDocumentsForUser lists documents a user can see through explicit grants
	ListDocumentsForUser(ctx context.Context, userID, userType string) ([]docsystem.Document, error)

	// DeleteByDocument removes all grants on a document and returns how many were removed
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

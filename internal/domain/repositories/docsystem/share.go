package docsystem

import (
	"context"
	"time"

	"campusdocs/internal/domain/models/docsystem"
)

// ShareRepository defines data access operations for share links
type ShareRepository interface {
	// Create inserts a share link and sets its generated ID
	Create(ctx context.Context, s *docsystem.ShareLink) error

	// GetByID retrieves a share link by ID
	GetByID(ctx context.Context, id string) (*docsystem.ShareLink, error)

	// GetByTokenHash retrieves a share link by the hash of its token
	GetByTokenHash(ctx context.Context, tokenHash string) (*docsystem.ShareLink, error)

	// ListByDocument lists share links of a document, newest first
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.ShareLink, error)

	// Revoke sets revoked_at if it is not set yet. Returns whether the row changed.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)

	// DeleteByDocument removes all share links of a document
	DeleteByDocument(ctx context.Context, documentID string) error
}

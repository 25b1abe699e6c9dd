package docsystem

import (
	"context"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// GrantService manages explicit per-user access grants
type GrantService interface {
	// Grant records a grant. Granting an existing tuple returns the existing grant unchanged.
	Grant(ctx context.Context, actor models.Identity, req *GrantRequest) (*docsystem.AccessGrant, error)

	// ListForUser lists documents explicitly shared with a user
	ListForUser(ctx context.Context, userID, userType string) ([]docsystem.Document, error)

	// ListForDocument lists grants on a document
	ListForDocument(ctx context.Context, actor models.Identity, documentID string) ([]docsystem.AccessGrant, error)

	// RevokeAllForDocument removes every grant on a document
	RevokeAllForDocument(ctx context.Context, actor models.Identity, documentID string) (int64, error)

	// HasGrant reports whether a user holds any grant on a document
	HasGrant(ctx context.Context, documentID, userID, userType string) (bool, error)
}

// GrantRequest represents a grant creation request
type GrantRequest struct {
	DocumentID string                `json:"-"`
	UserID     string                `json:"userId"`
	UserType   string                `json:"userType"`
	Access     docsystem.GrantAccess `json:"access"`
}

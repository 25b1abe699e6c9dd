package docsystem

import (
	"context"
	"io"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// ShareService issues, validates and revokes share links
type ShareService interface {
	// CreateLink issues a link. The raw token is only present in the returned value.
	CreateLink(ctx context.Context, actor models.Identity, req *CreateShareRequest) (*docsystem.CreatedShare, error)

	// Validate resolves a raw token to its document.
	// Unknown, expired and revoked tokens all return domain.ErrInvalidOrExpired.
	Validate(ctx context.Context, req *ValidateShareRequest) (*ResolvedShare, error)

	// Open validates the token and opens the document bytes
	Open(ctx context.Context, req *ValidateShareRequest) (*SharedFile, error)

	// Revoke revokes a link (idempotent)
	Revoke(ctx context.Context, actor models.Identity, shareID string) (*docsystem.ShareLink, error)

	// ListForDocument lists links of a document
	ListForDocument(ctx context.Context, actor models.Identity, documentID string) ([]docsystem.ShareLink, error)
}

// CreateShareRequest represents a share link creation request
type CreateShareRequest struct {
	DocumentID    string             `json:"-"`
	ExpiresInDays *int               `json:"expiresInDays,omitempty"`
	Audience      docsystem.Audience `json:"audience,omitempty"`
	Password      *string            `json:"password,omitempty"`
}

// ValidateShareRequest carries a raw token and the (possibly anonymous) requester
type ValidateShareRequest struct {
	Token     string
	Requester models.Identity // Zero value for anonymous requests
	Password  string
}

// ResolvedShare is a validated link with its document
type ResolvedShare struct {
	Share    *docsystem.ShareLink `json:"share"`
	Document *docsystem.Document  `json:"document"`
}

// SharedFile is an opened shared document. Callers must close Content.
type SharedFile struct {
	Document *docsystem.Document
	Content  io.ReadCloser
}

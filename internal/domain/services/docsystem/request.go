package docsystem

import (
	"context"
	"time"

	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
)

// RequestService manages document request tickets
type RequestService interface {
	Create(ctx context.Context, actor models.Identity, req *CreateDocumentRequestRequest) (*docsystem.DocumentRequest, error)

	// Get returns a request visible to actor (requester or target)
	Get(ctx context.Context, actor models.Identity, id string) (*docsystem.DocumentRequest, error)

	ListIncoming(ctx context.Context, actor models.Identity) ([]docsystem.DocumentRequest, error)
	ListOutgoing(ctx context.Context, actor models.Identity) ([]docsystem.DocumentRequest, error)

	// Fulfill and Decline move an open request to a terminal state. Only the target may do so.
	Fulfill(ctx context.Context, actor models.Identity, id string, documentID *string) (*docsystem.DocumentRequest, error)
	Decline(ctx context.Context, actor models.Identity, id string) (*docsystem.DocumentRequest, error)
}

// CreateDocumentRequestRequest represents a new document request ticket
type CreateDocumentRequestRequest struct {
	TargetID   string     `json:"targetId"`
	TargetType string     `json:"targetType"`
	Title      string     `json:"title"`
	Message    *string    `json:"message,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

// FulfillRequest is the optional body of the fulfill endpoint
type FulfillRequest struct {
	DocumentID *string `json:"documentId,omitempty"`
}

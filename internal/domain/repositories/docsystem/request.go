package docsystem

import (
	"context"

	"campusdocs/internal/domain/models/docsystem"
)

// RequestRepository defines data access operations for document request tickets
type RequestRepository interface {
	Create(ctx context.Context, r *docsystem.DocumentRequest) error
	GetByID(ctx context.Context, id string) (*docsystem.DocumentRequest, error)

	// ListByTarget lists requests addressed to a user (incoming)
	ListByTarget(ctx context.Context, targetID, targetType string) ([]docsystem.DocumentRequest, error)

	// ListByRequester lists requests a user has sent (outgoing)
	ListByRequester(ctx context.Context, requesterID, requesterType string) ([]docsystem.DocumentRequest, error)

	// UpdateStatus moves a request from the expected status to r.Status.
	// Returns domain.ErrConflict if the stored status is no longer expected.
	UpdateStatus(ctx context.Context, r *docsystem.DocumentRequest, expected docsystem.RequestStatus) error
}
